package roulette

import "errors"

// Erros recuperáveis pelo cliente: nenhum deles altera o estado da sessão
var (
	ErrInvalidSession    = errors.New("invalid session")
	ErrInvalidBet        = errors.New("invalid bet")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoBets            = errors.New("no bets")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrRoundInProgress   = errors.New("round in progress")
)
