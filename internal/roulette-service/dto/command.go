package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/radieske/roulette-table-poc/internal/roulette"
)

// Nomes canônicos dos comandos
const (
	CmdLogin      = "login"
	CmdEnterGame  = "enter-game"
	CmdPlaceBet   = "place-bet"
	CmdClearBets  = "clear-bets"
	CmdUndoBet    = "undo-bet"
	CmdSpin       = "spin"
	CmdGetHistory = "get-history"
	CmdGetStats   = "get-stats"
	CmdKeepAlive  = "keep-alive"
	CmdCancel     = "cancel"
	CmdCollect    = "collect"
	CmdRefresh    = "refresh"
)

// legacyNames mapeia os nomes usados pelo cliente Flash antigo
var legacyNames = map[string]string{
	"flblogin":    CmdLogin,
	"comeingame3": CmdEnterGame,
	"placebet":    CmdPlaceBet,
	"gamectrl3":   CmdSpin,
	"clearbet":    CmdClearBets,
	"undobet":     CmdUndoBet,
	"gethistory":  CmdGetHistory,
	"getstats":    CmdGetStats,
	"keepalive":   CmdKeepAlive,
}

var known = map[string]struct{}{
	CmdLogin: {}, CmdEnterGame: {}, CmdPlaceBet: {}, CmdClearBets: {}, CmdUndoBet: {}, CmdSpin: {},
	CmdGetHistory: {}, CmdGetStats: {}, CmdKeepAlive: {}, CmdCancel: {}, CmdCollect: {}, CmdRefresh: {},
}

// ErrBadRequest indica frame que não segue o formato de comando
var ErrBadRequest = errors.New("bad request")

var validate = validator.New()

// envelope aceita o formato novo ({"cmd", "params"}) e o antigo com campos soltos ({"cmdid", ...})
type envelope struct {
	Cmd       string          `json:"cmd"`
	CmdID     string          `json:"cmdid"`
	SessionID string          `json:"sessionId" validate:"omitempty,max=128"`
	RequestID string          `json:"requestId" validate:"omitempty,max=128"` // ecoado na resposta; no spin também é chave de retry
	Params    json.RawMessage `json:"params"`
}

// Command é um comando decodificado e com nome normalizado
// Name vazio nunca sai de Decode; nomes desconhecidos ficam em Name para o dispatcher responder
type Command struct {
	Name      string
	SessionID string
	RequestID string
	params    json.RawMessage
}

// Known indica se o nome está no vocabulário suportado
func (c Command) Known() bool {
	_, ok := known[c.Name]
	return ok
}

// PlaceBetParams é o corpo de place-bet
type PlaceBetParams struct {
	BetType string `json:"betType" validate:"required"`
	Numbers []int  `json:"numbers" validate:"required,min=1,max=18,dive,min=0,max=36"`
	Amount  int64  `json:"amount" validate:"required,gt=0"`
}

// EnterGameParams é o corpo de enter-game
type EnterGameParams struct {
	TableID string `json:"tableId" validate:"omitempty,max=64"`
}

// HistoryParams é o corpo de get-history
type HistoryParams struct {
	Limit int `json:"limit" validate:"omitempty,min=1"`
}

// Decode lê um frame JSON e normaliza o nome do comando
func Decode(raw []byte) (Command, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Command{}, fmt.Errorf("%w: frame must be a JSON object", ErrBadRequest)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := validate.Struct(env); err != nil {
		return Command{}, fmt.Errorf("%w: %s", ErrBadRequest, validationMessage(err))
	}

	name := strings.ToLower(strings.TrimSpace(env.Cmd))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(env.CmdID))
	}
	if name == "" {
		return Command{}, fmt.Errorf("%w: missing cmd", ErrBadRequest)
	}
	if canon, ok := legacyNames[name]; ok {
		name = canon
	}

	params := env.Params
	if len(params) == 0 || string(params) == "null" {
		// formato antigo: os parâmetros vêm no próprio objeto
		params = raw
	}
	return Command{Name: name, SessionID: env.SessionID, RequestID: env.RequestID, params: params}, nil
}

// PlaceBet extrai os parâmetros de place-bet
// JSON quebrado é BAD_REQUEST; forma inválida é INVALID_BET
func (c Command) PlaceBet() (PlaceBetParams, error) {
	var p PlaceBetParams
	if err := c.bind(&p); err != nil {
		return p, err
	}
	if err := validate.Struct(p); err != nil {
		return p, fmt.Errorf("%w: %s", roulette.ErrInvalidBet, validationMessage(err))
	}
	return p, nil
}

// EnterGame extrai os parâmetros de enter-game
func (c Command) EnterGame() (EnterGameParams, error) {
	var p EnterGameParams
	if err := c.bind(&p); err != nil {
		return p, err
	}
	if err := validate.Struct(p); err != nil {
		return p, fmt.Errorf("%w: %s", ErrBadRequest, validationMessage(err))
	}
	return p, nil
}

// History extrai os parâmetros de get-history
func (c Command) History() (HistoryParams, error) {
	var p HistoryParams
	if err := c.bind(&p); err != nil {
		return p, err
	}
	if err := validate.Struct(p); err != nil {
		return p, fmt.Errorf("%w: %s", ErrBadRequest, validationMessage(err))
	}
	return p, nil
}

func (c Command) bind(dst any) error {
	if len(c.params) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.params, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", e.Field()))
		case "min", "max", "gt":
			msgs = append(msgs, fmt.Sprintf("field %s out of bounds (%s=%s)", e.Field(), e.ActualTag(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}
