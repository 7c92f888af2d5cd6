package roulette

// Stats acumula o desempenho da sessão; só é zerado com o fim da sessão
type Stats struct {
	TotalWins    int   `json:"totalWins"`
	TotalLosses  int   `json:"totalLosses"`
	WinStreak    int   `json:"winStreak"`
	LossStreak   int   `json:"lossStreak"`
	LifetimeBet  int64 `json:"lifetimeWagered"`
	LifetimeWon  int64 `json:"lifetimeWon"`
	RoundsPlayed int   `json:"roundsPlayed"`
}

// record aplica o resultado de uma rodada: exatamente um dos caminhos executa
func (s *Stats) record(wagered, won int64) {
	s.RoundsPlayed++
	s.LifetimeBet += wagered
	s.LifetimeWon += won
	if won > 0 {
		s.TotalWins++
		s.WinStreak++
		s.LossStreak = 0
		return
	}
	s.TotalLosses++
	s.LossStreak++
	s.WinStreak = 0
}
