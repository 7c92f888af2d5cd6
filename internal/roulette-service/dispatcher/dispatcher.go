package dispatcher

import (
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/roulette-table-poc/internal/roulette"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/dto"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/events"
	"github.com/radieske/roulette-table-poc/internal/shared/logger"
	"github.com/radieske/roulette-table-poc/internal/shared/metrics"
	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

const (
	defaultHistoryLimit = 10
	statsRecentRounds   = 10
	recentNumbers       = 12
)

var chipColors = []string{"white", "red", "blue", "green", "purple", "black", "orange"}

// Publisher recebe os eventos de rodadas liquidadas; não pode bloquear
type Publisher interface {
	Publish(ev cevents.RoundSettled)
}

// Options configura o Dispatcher; campos nil são opcionais
type Options struct {
	TableID           string
	LegacyAutoSession bool
	Metrics           *metrics.Roulette
	Events            Publisher
	Now               func() time.Time
}

// Dispatcher traduz um comando decodificado em operações de sessão e em exatamente uma resposta
type Dispatcher struct {
	log    *zap.Logger
	reg    *roulette.Registry
	table  roulette.Table
	opts   Options
	now    func() time.Time
	m      *metrics.Roulette
	events Publisher
}

func New(log *zap.Logger, reg *roulette.Registry, opts Options) *Dispatcher {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.TableID == "" {
		opts.TableID = "default"
	}
	return &Dispatcher{
		log:    log,
		reg:    reg,
		table:  reg.Table(),
		opts:   opts,
		now:    now,
		m:      opts.Metrics,
		events: opts.Events,
	}
}

// Dispatch executa cmd. bound é a sessão já ligada à conexão (pode ser vazia)
// Retorna a resposta e a sessão que a conexão deve manter ligada
func (d *Dispatcher) Dispatch(bound string, cmd dto.Command) (dto.Reply, string) {
	id := bound
	if id == "" {
		id = cmd.SessionID
	}
	reply, id := d.handle(id, cmd)
	if reply.Unresolved() {
		// identidade desconhecida nunca fica ligada à conexão
		id = bound
	}
	reply.RequestID = cmd.RequestID
	d.observe(cmd, reply)
	return reply, id
}

// Reject responde um frame que não pôde ser decodificado
func (d *Dispatcher) Reject(err error) dto.Reply {
	reply := d.fail("", err)
	d.count("invalid", reply)
	return reply
}

func (d *Dispatcher) handle(id string, cmd dto.Command) (dto.Reply, string) {
	switch cmd.Name {
	case dto.CmdLogin:
		return d.login(id, cmd)
	case dto.CmdEnterGame:
		return d.enterGame(id, cmd)
	case dto.CmdKeepAlive:
		return d.keepAlive(id, cmd), id
	}
	if !cmd.Known() {
		return d.fail(cmd.Name, roulette.ErrUnknownCommand), id
	}

	s, err := d.reg.Acquire(id)
	if err != nil {
		return d.fail(cmd.Name, err), id
	}
	defer d.reg.Release(s)

	switch cmd.Name {
	case dto.CmdPlaceBet:
		return d.placeBet(s, cmd), id
	case dto.CmdUndoBet:
		res, err := s.UndoLast()
		if err != nil {
			return d.fail(cmd.Name, err), id
		}
		return dto.OK(cmd.Name, res), id
	case dto.CmdClearBets, dto.CmdCancel:
		res, err := s.ClearAll()
		if err != nil {
			return d.fail(cmd.Name, err), id
		}
		return dto.OK(cmd.Name, res), id
	case dto.CmdSpin:
		return d.spin(s, cmd), id
	case dto.CmdGetHistory:
		return d.history(s, cmd), id
	case dto.CmdGetStats:
		snap := s.Snapshot()
		return dto.OK(cmd.Name, dto.StatsData{
			Snapshot:      snap,
			GamesPlayed:   snap.Stats.RoundsPlayed,
			RecentHistory: s.History(statsRecentRounds),
		}), id
	case dto.CmdCollect:
		// o prêmio já foi creditado no spin; collect só confirma
		data := dto.CollectData{Bankroll: s.Bankroll()}
		if r, ok := s.LastRound(); ok {
			data.RoundID = r.ID
			data.TotalWon = r.TotalWon
		}
		return dto.OK(cmd.Name, data), id
	case dto.CmdRefresh:
		snap := s.Snapshot()
		return dto.OK(cmd.Name, dto.BankrollData{Bankroll: snap.Bankroll, TotalWagered: snap.TotalWagered}), id
	}
	return d.fail(cmd.Name, roulette.ErrUnknownCommand), id
}

// login sempre cria uma sessão nova; a anterior, se houver, expira pela varredura
func (d *Dispatcher) login(prev string, cmd dto.Command) (dto.Reply, string) {
	s, err := d.reg.Login()
	if err != nil {
		return d.fail(cmd.Name, err), prev
	}
	d.gaugeSessions()
	logger.Session(d.log, s.ID).Info("session created")
	return dto.OK(cmd.Name, dto.LoginData{SessionID: s.ID, Bankroll: s.Bankroll()}), s.ID
}

func (d *Dispatcher) enterGame(id string, cmd dto.Command) (dto.Reply, string) {
	if _, err := cmd.EnterGame(); err != nil {
		return d.fail(cmd.Name, err), id
	}

	s, err := d.reg.Acquire(id)
	if errors.Is(err, roulette.ErrInvalidSession) && d.opts.LegacyAutoSession {
		var fresh *roulette.Session
		if fresh, err = d.reg.Login(); err == nil {
			d.gaugeSessions()
			logger.Session(d.log, fresh.ID).Info("session created on enter-game")
			s, err = d.reg.Acquire(fresh.ID)
		}
	}
	if err != nil {
		return d.fail(cmd.Name, err), id
	}
	defer d.reg.Release(s)

	return dto.OK(cmd.Name, d.gameConfig(s)), s.ID
}

func (d *Dispatcher) gameConfig(s *roulette.Session) dto.GameConfig {
	limits := s.Limits()
	chips := make([]dto.Chip, 0, len(d.table.Chips))
	for i, v := range d.table.Chips {
		chips = append(chips, dto.Chip{Value: v, Color: chipColors[i%len(chipColors)]})
	}

	var ceilings map[string]int64
	var maxBet int64
	if limits.BaseChip > 0 {
		ceilings = make(map[string]int64, len(roulette.BetTypes))
		for _, t := range roulette.BetTypes {
			c := limits.Ceiling(t)
			ceilings[string(t)] = c
			maxBet = max(maxBet, c)
		}
	}

	snap := s.Snapshot()
	rounds := s.History(recentNumbers)
	recent := make([]int, 0, len(rounds))
	for _, r := range slices.Backward(rounds) {
		recent = append(recent, r.WinningNumber)
	}

	return dto.GameConfig{
		SessionID: s.ID,
		TableID:   d.opts.TableID,
		Bankroll:  snap.Bankroll,
		Chips:     chips,
		MinBet:    limits.BaseChip,
		MaxBet:    maxBet,
		Ceilings:  ceilings,
		LiveBets:  snap.LiveBets,
		Recent:    recent,
	}
}

// keepAlive sempre confirma; sessionValid diz se a identidade ainda existe
func (d *Dispatcher) keepAlive(id string, cmd dto.Command) dto.Reply {
	valid := id != "" && d.reg.Touch(id) == nil
	return dto.OK(cmd.Name, dto.KeepAliveData{ServerTime: d.now().UnixMilli(), SessionValid: valid})
}

func (d *Dispatcher) placeBet(s *roulette.Session, cmd dto.Command) dto.Reply {
	p, err := cmd.PlaceBet()
	if err != nil {
		return d.fail(cmd.Name, err)
	}
	t, err := roulette.ParseBetType(p.BetType)
	if err != nil {
		return d.fail(cmd.Name, err)
	}
	res, err := s.PlaceBet(t, p.Numbers, p.Amount)
	if err != nil {
		return d.fail(cmd.Name, err)
	}
	return dto.OK(cmd.Name, res)
}

func (d *Dispatcher) spin(s *roulette.Session, cmd dto.Command) dto.Reply {
	res, err := s.Spin(cmd.RequestID)
	if err != nil {
		return d.fail(cmd.Name, err)
	}

	if !res.Replayed {
		if d.m != nil {
			d.m.Spins.Inc()
			d.m.WageredCents.Add(float64(res.TotalWagered))
			d.m.PaidCents.Add(float64(res.TotalWon))
		}
		if d.events != nil {
			d.events.Publish(events.FromRound(d.opts.TableID, s.ID, res.Round))
		}
		logger.Session(d.log, s.ID).Info("round settled",
			zap.String("round_id", res.ID),
			zap.Int("winning_number", res.WinningNumber),
			zap.Int64("wagered", res.TotalWagered),
			zap.Int64("won", res.TotalWon),
			zap.Int64("bankroll", res.Bankroll),
		)
	}
	return dto.OK(cmd.Name, dto.SpinData{SpinResult: res, TotalWinnings: res.TotalWon})
}

func (d *Dispatcher) history(s *roulette.Session, cmd dto.Command) dto.Reply {
	p, err := cmd.History()
	if err != nil {
		return d.fail(cmd.Name, err)
	}
	limit := p.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	return dto.OK(cmd.Name, dto.HistoryData{History: s.History(limit)})
}

func (d *Dispatcher) fail(cmd string, err error) dto.Reply {
	code := Code(err)
	if code == dto.CodeInternal {
		d.log.Error("command failed", zap.String("cmd", cmd), zap.Error(err))
		return dto.Fail(cmd, code, "internal error")
	}
	return dto.Fail(cmd, code, err.Error())
}

// Code classifica o erro no código devolvido ao cliente
func Code(err error) string {
	switch {
	case errors.Is(err, roulette.ErrInvalidSession):
		return dto.CodeInvalidSession
	case errors.Is(err, roulette.ErrInvalidBet):
		return dto.CodeInvalidBet
	case errors.Is(err, roulette.ErrInsufficientFunds):
		return dto.CodeInsufficientFunds
	case errors.Is(err, roulette.ErrNoBets):
		return dto.CodeNoBets
	case errors.Is(err, roulette.ErrUnknownCommand):
		return dto.CodeUnknownCommand
	case errors.Is(err, roulette.ErrRoundInProgress):
		return dto.CodeRoundInProgress
	case errors.Is(err, dto.ErrBadRequest):
		return dto.CodeBadRequest
	default:
		return dto.CodeInternal
	}
}

func (d *Dispatcher) observe(cmd dto.Command, reply dto.Reply) {
	name := cmd.Name
	if !cmd.Known() {
		name = "unknown"
	}
	d.count(name, reply)
	if !reply.Success {
		d.log.Debug("command rejected", zap.String("cmd", cmd.Name), zap.String("code", reply.Error.Code))
	}
}

func (d *Dispatcher) count(name string, reply dto.Reply) {
	if d.m == nil {
		return
	}
	result := "ok"
	if reply.Error != nil {
		result = reply.Error.Code
	}
	d.m.Commands.WithLabelValues(name, result).Inc()
}

func (d *Dispatcher) gaugeSessions() {
	if d.m != nil {
		d.m.SessionsActive.Set(float64(d.reg.Len()))
	}
}
