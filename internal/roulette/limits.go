package roulette

import "fmt"

// tagFactors multiplica a ficha base para obter o teto por posição da mesa
var tagFactors = map[BetType]int64{
	Straight:  2500,
	Split:     5000,
	Street:    7500,
	Corner:    1000,
	Line:      15000,
	Dozen:     30000,
	Column:    30000,
	EvenMoney: 50000,
}

// Limits define os tetos de aposta por tag, escalados pela ficha base da mesa
type Limits struct {
	BaseChip int64
}

// Ceiling retorna o total máximo permitido numa tag do tipo informado
func (l Limits) Ceiling(t BetType) int64 {
	return l.BaseChip * tagFactors[t]
}

// Check valida se current+add cabe no teto do tipo
func (l Limits) Check(t BetType, current, add int64) error {
	if l.BaseChip <= 0 {
		return nil
	}
	if ceiling := l.Ceiling(t); current+add > ceiling {
		return fmt.Errorf("%w: %s ceiling %d exceeded", ErrInvalidBet, t, ceiling)
	}
	return nil
}
