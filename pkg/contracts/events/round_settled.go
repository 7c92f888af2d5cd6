package events

// RoundSettled é publicado uma vez por rodada liquidada
// Valores em centavos; SessionRef é só um prefixo do id da sessão, nunca o token completo
type RoundSettled struct {
	RoundID       string    `json:"round_id"`
	TableID       string    `json:"table_id"`
	SessionRef    string    `json:"session_ref"`
	WinningNumber int       `json:"winning_number"`
	Bets          []BetLine `json:"bets"`
	TotalWagered  int64     `json:"total_wagered_cents"`
	TotalWon      int64     `json:"total_won_cents"`
	NetProfit     int64     `json:"net_profit_cents"`
	Bankroll      int64     `json:"bankroll_cents"`
	TsUnixMs      int64     `json:"ts_unix_ms"`
}

// BetLine é uma aposta da rodada com o retorno apurado
type BetLine struct {
	BetType string `json:"bet_type"`
	Numbers []int  `json:"numbers"`
	Amount  int64  `json:"amount_cents"`
	Payout  int64  `json:"payout_cents"`
}
