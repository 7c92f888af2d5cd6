package roulette

import "slices"

// Ledger guarda as apostas vivas da rodada atual, em ordem de colocação
// Não é seguro para uso concorrente; a Session serializa o acesso
type Ledger struct {
	bets []Bet
}

func (l *Ledger) Add(b Bet) { l.bets = append(l.bets, b) }

// PopLast remove a aposta mais recente
func (l *Ledger) PopLast() (Bet, bool) {
	if len(l.bets) == 0 {
		return Bet{}, false
	}
	last := l.bets[len(l.bets)-1]
	l.bets = l.bets[:len(l.bets)-1]
	return last, true
}

// Clear esvazia o ledger e devolve as apostas removidas
func (l *Ledger) Clear() []Bet {
	removed := l.bets
	l.bets = nil
	return removed
}

// Total soma o valor de todas as apostas vivas
func (l *Ledger) Total() int64 {
	var sum int64
	for _, b := range l.bets {
		sum += b.Amount
	}
	return sum
}

// TagTotal soma o valor já apostado numa tag
func (l *Ledger) TagTotal(tag string) int64 {
	var sum int64
	for _, b := range l.bets {
		if b.Tag == tag {
			sum += b.Amount
		}
	}
	return sum
}

func (l *Ledger) Len() int { return len(l.bets) }

// Bets retorna uma cópia das apostas vivas
func (l *Ledger) Bets() []Bet { return slices.Clone(l.bets) }
