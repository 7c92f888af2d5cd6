package dto

import "github.com/radieske/roulette-table-poc/internal/roulette"

// Códigos de erro devolvidos ao cliente
const (
	CodeInvalidSession    = "INVALID_SESSION"
	CodeInvalidBet        = "INVALID_BET"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeNoBets            = "NO_BETS"
	CodeUnknownCommand    = "UNKNOWN_COMMAND"
	CodeRoundInProgress   = "ROUND_IN_PROGRESS"
	CodeBadRequest        = "BAD_REQUEST"
	CodeInternal          = "INTERNAL"
)

// Reply é o envelope de toda resposta: um por comando recebido
type Reply struct {
	Cmd       string     `json:"cmd"`
	RequestID string     `json:"requestId,omitempty"`
	Success   bool       `json:"success"`
	Error     *ErrorBody `json:"error,omitempty"`
	Data      any        `json:"data,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func OK(cmd string, data any) Reply {
	return Reply{Cmd: cmd, Success: true, Data: data}
}

func Fail(cmd, code, msg string) Reply {
	return Reply{Cmd: cmd, Success: false, Error: &ErrorBody{Code: code, Message: msg}}
}

// Unresolved diz se a resposta não confirmou a sessão usada no comando
func (r Reply) Unresolved() bool {
	if r.Error != nil {
		return r.Error.Code == CodeInvalidSession
	}
	ka, ok := r.Data.(KeepAliveData)
	return ok && !ka.SessionValid
}

// LoginData responde login
type LoginData struct {
	SessionID string `json:"sessionId"`
	Bankroll  int64  `json:"bankroll"`
}

// Chip é uma ficha disponível na mesa
type Chip struct {
	Value int64  `json:"value"`
	Color string `json:"color"`
}

// GameConfig responde enter-game com tudo o que o cliente precisa para montar a mesa
type GameConfig struct {
	SessionID string           `json:"sessionId"`
	TableID   string           `json:"tableId"`
	Bankroll  int64            `json:"bankroll"`
	Chips     []Chip           `json:"chips"`
	MinBet    int64            `json:"minBet"`
	MaxBet    int64            `json:"maxBet"`
	Ceilings  map[string]int64 `json:"ceilings,omitempty"`
	LiveBets  []roulette.Bet   `json:"liveBets"`
	Recent    []int            `json:"recentNumbers"`
}

// SpinData responde spin
type SpinData struct {
	roulette.SpinResult
	TotalWinnings int64 `json:"totalWinnings"`
}

type HistoryData struct {
	History []roulette.Round `json:"history"`
}

// StatsData responde get-stats
type StatsData struct {
	roulette.Snapshot
	GamesPlayed   int              `json:"gamesPlayed"`
	RecentHistory []roulette.Round `json:"recentHistory"`
}

type KeepAliveData struct {
	ServerTime   int64 `json:"serverTime"` // unix ms
	SessionValid bool  `json:"sessionValid"`
}

// TimeSyncData é o heartbeat enviado pelo servidor
type TimeSyncData struct {
	ServerTime int64 `json:"serverTime"`
}

// CollectData confirma o recebimento do último prêmio; o crédito já ocorreu no spin
type CollectData struct {
	RoundID  string `json:"roundId,omitempty"`
	TotalWon int64  `json:"totalWon"`
	Bankroll int64  `json:"bankroll"`
}

type BankrollData struct {
	Bankroll     int64 `json:"bankroll"`
	TotalWagered int64 `json:"totalWagered"`
}
