package events

import (
	"github.com/radieske/roulette-table-poc/internal/roulette"
	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

// sessionRefLen é quanto do id da sessão vai para fora do processo
const sessionRefLen = 8

// FromRound monta o evento publicado para uma rodada liquidada
func FromRound(tableID, sessionID string, r roulette.Round) cevents.RoundSettled {
	ref := sessionID
	if len(ref) > sessionRefLen {
		ref = ref[:sessionRefLen]
	}
	lines := make([]cevents.BetLine, 0, len(r.Bets))
	for _, b := range r.Bets {
		lines = append(lines, cevents.BetLine{
			BetType: string(b.Type),
			Numbers: b.Numbers,
			Amount:  b.Amount,
			Payout:  b.Payout,
		})
	}
	return cevents.RoundSettled{
		RoundID:       r.ID,
		TableID:       tableID,
		SessionRef:    ref,
		WinningNumber: r.WinningNumber,
		Bets:          lines,
		TotalWagered:  r.TotalWagered,
		TotalWon:      r.TotalWon,
		NetProfit:     r.NetProfit,
		Bankroll:      r.Bankroll,
		TsUnixMs:      r.SettledAt.UnixMilli(),
	}
}
