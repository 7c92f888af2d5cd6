package roulette

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State é o estado da rodada da sessão
type State int32

const (
	Accepting State = iota // apostas podem ser colocadas, desfeitas e limpas
	Locked                 // giro em andamento, nenhuma mutação de aposta
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "accepting"
}

// Table reúne os parâmetros da mesa aplicados a cada sessão nova
type Table struct {
	StartingBankroll int64
	Chips            []int64 // denominações em centavos, ordem crescente
	HistoryCapacity  int
}

// BaseChip retorna a menor ficha da mesa
func (t Table) BaseChip() int64 {
	if len(t.Chips) == 0 {
		return 0
	}
	base := t.Chips[0]
	for _, c := range t.Chips[1:] {
		if c < base {
			base = c
		}
	}
	return base
}

// PlaceResult é o retorno de uma aposta aceita
type PlaceResult struct {
	Bet          Bet   `json:"bet"`
	Bankroll     int64 `json:"bankroll"`
	TotalWagered int64 `json:"totalWagered"`
}

// ClearResult é o retorno de clear/cancel
type ClearResult struct {
	Refunded int64 `json:"refundedAmount"`
	Bankroll int64 `json:"bankroll"`
}

// SpinResult é o retorno de uma rodada liquidada
type SpinResult struct {
	Round
	WinningBets []BetResult `json:"winningBets"`
	Replayed    bool        `json:"replayed,omitempty"`
}

// Snapshot é a leitura consistente do estado da sessão
type Snapshot struct {
	ID           string    `json:"sessionId"`
	Bankroll     int64     `json:"bankroll"`
	TotalWagered int64     `json:"totalWagered"`
	LiveBets     []Bet     `json:"liveBets"`
	State        string    `json:"state"`
	Stats        Stats     `json:"stats"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session é o estado de um jogador: banca, apostas vivas, histórico e estatísticas
// Toda mutação de dinheiro acontece sob mu
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	bankroll int64
	ledger   Ledger
	history  *History
	stats    Stats
	state    State
	limits   Limits
	gen      Generator
	now      func() time.Time

	// idempotência do spin: último requestId liquidado e seu resultado
	lastRequestID string
	lastSpin      SpinResult

	lastActivity atomic.Int64 // unix nanos
	inflight     atomic.Int32
}

func newSession(id string, table Table, gen Generator, now func() time.Time) *Session {
	created := now()
	s := &Session{
		ID:        id,
		CreatedAt: created,
		bankroll:  table.StartingBankroll,
		history:   NewHistory(table.HistoryCapacity),
		limits:    Limits{BaseChip: table.BaseChip()},
		gen:       gen,
		now:       now,
	}
	s.lastActivity.Store(created.UnixNano())
	return s
}

// Touch marca atividade na sessão
func (s *Session) Touch(at time.Time) { s.lastActivity.Store(at.UnixNano()) }

// LastActivity retorna o instante da última atividade
func (s *Session) LastActivity() time.Time { return time.Unix(0, s.lastActivity.Load()) }

// Bankroll retorna o saldo atual
func (s *Session) Bankroll() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bankroll
}

// PlaceBet valida e registra uma aposta, debitando a banca imediatamente
// Em caso de erro nada é alterado
func (s *Session) PlaceBet(t BetType, numbers []int, amount int64) (PlaceResult, error) {
	bet, err := NewBet(t, numbers, amount, s.now())
	if err != nil {
		return PlaceResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Locked {
		return PlaceResult{}, ErrRoundInProgress
	}
	// a banca já exclui as apostas vivas
	if bet.Amount > s.bankroll {
		return PlaceResult{}, fmt.Errorf("%w: bet %d, available %d", ErrInsufficientFunds, bet.Amount, s.bankroll)
	}
	if err := s.limits.Check(bet.Type, s.ledger.TagTotal(bet.Tag), bet.Amount); err != nil {
		return PlaceResult{}, err
	}

	s.bankroll -= bet.Amount
	s.ledger.Add(bet)
	// aposta nova abre outra rodada: o requestId anterior deixa de ser replay
	s.lastRequestID = ""
	return PlaceResult{Bet: bet, Bankroll: s.bankroll, TotalWagered: s.ledger.Total()}, nil
}

// UndoLast desfaz a aposta mais recente e devolve o valor à banca
func (s *Session) UndoLast() (PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Locked {
		return PlaceResult{}, ErrRoundInProgress
	}
	bet, ok := s.ledger.PopLast()
	if !ok {
		return PlaceResult{}, ErrNoBets
	}
	s.bankroll += bet.Amount
	return PlaceResult{Bet: bet, Bankroll: s.bankroll, TotalWagered: s.ledger.Total()}, nil
}

// ClearAll devolve todas as apostas vivas; ledger vazio retorna 0 sem erro
// Também atende o cancelamento de rodada antes do giro
func (s *Session) ClearAll() (ClearResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Locked {
		return ClearResult{}, ErrRoundInProgress
	}
	var refunded int64
	for _, b := range s.ledger.Clear() {
		refunded += b.Amount
	}
	s.bankroll += refunded
	return ClearResult{Refunded: refunded, Bankroll: s.bankroll}, nil
}

// TotalWagered soma as apostas vivas
func (s *Session) TotalWagered() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Total()
}

// Spin liquida a rodada: captura as apostas, sorteia uma vez, credita os retornos,
// atualiza estatísticas e histórico e esvazia o ledger
//
// requestID opcional: repetir o id do último giro liquidado devolve o mesmo resultado
// sem novo crédito, desde que nenhuma aposta tenha sido feita depois dele
func (s *Session) Spin(requestID string) (SpinResult, error) {
	s.mu.Lock()
	if s.state == Locked {
		s.mu.Unlock()
		return SpinResult{}, ErrRoundInProgress
	}
	if requestID != "" && requestID == s.lastRequestID {
		res := s.lastSpin
		s.mu.Unlock()
		res.Replayed = true
		return res, nil
	}
	if s.ledger.Len() == 0 {
		s.mu.Unlock()
		return SpinResult{}, ErrNoBets
	}
	s.state = Locked
	bets := s.ledger.Bets()
	s.mu.Unlock()

	winning, err := s.gen.Next()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// nenhum dinheiro saiu do escrow: a rodada volta a aceitar apostas
		s.state = Accepting
		return SpinResult{}, err
	}
	if winning < 0 || winning >= Pockets {
		s.state = Accepting
		return SpinResult{}, fmt.Errorf("outcome %d out of range", winning)
	}

	res := s.settle(bets, winning)
	s.lastRequestID = requestID
	s.lastSpin = res
	s.state = Accepting
	return res, nil
}

// settle aplica a rodada; chamado com mu travado e estado Locked
func (s *Session) settle(bets []Bet, winning int) SpinResult {
	var wagered, won int64
	results := make([]BetResult, 0, len(bets))
	winners := make([]BetResult, 0)
	for _, b := range bets {
		p := Payout(b.Numbers, b.Amount, winning)
		r := BetResult{Bet: b, Won: p > 0, Payout: p}
		results = append(results, r)
		if r.Won {
			winners = append(winners, r)
		}
		wagered += b.Amount
		won += p
	}

	// a aposta já foi debitada na colocação: aqui só entra o retorno
	s.bankroll += won
	s.stats.record(wagered, won)
	s.ledger.Clear()

	round := Round{
		ID:            uuid.NewString(),
		WinningNumber: winning,
		Bets:          results,
		TotalWagered:  wagered,
		TotalWon:      won,
		NetProfit:     won - wagered,
		Bankroll:      s.bankroll,
		SettledAt:     s.now(),
	}
	s.history.Append(round)
	return SpinResult{Round: round, WinningBets: winners}
}

// LastRound retorna a última rodada liquidada (usado pelo collect)
func (s *Session) LastRound() (Round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Last()
}

// History retorna até limit rodadas mais recentes
func (s *Session) History(limit int) []Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Recent(limit)
}

// Snapshot retorna banca, apostas vivas, estado e estatísticas num único ponto consistente
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:           s.ID,
		Bankroll:     s.bankroll,
		TotalWagered: s.ledger.Total(),
		LiveBets:     s.ledger.Bets(),
		State:        s.state.String(),
		Stats:        s.stats,
		CreatedAt:    s.CreatedAt,
	}
}

// Limits retorna os tetos aplicados à sessão
func (s *Session) Limits() Limits { return s.limits }
