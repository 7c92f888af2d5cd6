package roulette

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// BetType identifica a geometria da aposta na mesa
type BetType string

const (
	Straight  BetType = "straight"
	Split     BetType = "split"
	Street    BetType = "street"
	Corner    BetType = "corner"
	Line      BetType = "line"
	Dozen     BetType = "dozen"
	Column    BetType = "column"
	EvenMoney BetType = "even-money"
)

// BetTypes lista os tipos na ordem da mesa
var BetTypes = []BetType{Straight, Split, Street, Corner, Line, Dozen, Column, EvenMoney}

// coverage é a quantidade de números que cada tipo cobre
var coverage = map[BetType]int{
	Straight:  1,
	Split:     2,
	Street:    3,
	Corner:    4,
	Line:      6,
	Dozen:     12,
	Column:    12,
	EvenMoney: 18,
}

// RedNumbers são as casas vermelhas da roleta europeia
var RedNumbers = []int{1, 3, 5, 7, 9, 12, 14, 16, 18, 19, 21, 23, 25, 27, 30, 32, 34, 36}

// ParseBetType converte o nome recebido do cliente em BetType
func ParseBetType(s string) (BetType, error) {
	t := BetType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := coverage[t]; !ok {
		return "", fmt.Errorf("%w: unknown bet type %q", ErrInvalidBet, s)
	}
	return t, nil
}

// Bet é uma aposta viva no ledger
type Bet struct {
	Type     BetType   `json:"betType"`
	Tag      string    `json:"tag"`
	Numbers  []int     `json:"numbers"`
	Amount   int64     `json:"amount"`
	PlacedAt time.Time `json:"placedAt"`
}

// NewBet valida forma e valor e devolve a aposta normalizada
// A tag identifica a posição na mesa e é sempre derivada dos números ordenados
func NewBet(t BetType, numbers []int, amount int64, now time.Time) (Bet, error) {
	if amount <= 0 {
		return Bet{}, fmt.Errorf("%w: amount must be positive", ErrInvalidBet)
	}
	sorted, err := validateNumbers(t, numbers)
	if err != nil {
		return Bet{}, err
	}
	return Bet{Type: t, Tag: canonicalTag(t, sorted), Numbers: sorted, Amount: amount, PlacedAt: now}, nil
}

// Covers indica se o número sorteado está entre os cobertos
func (b Bet) Covers(n int) bool {
	_, ok := slices.BinarySearch(b.Numbers, n)
	return ok
}

func canonicalTag(t BetType, sorted []int) string {
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = strconv.Itoa(n)
	}
	return string(t) + ":" + strings.Join(parts, "-")
}

func validateNumbers(t BetType, numbers []int) ([]int, error) {
	want, ok := coverage[t]
	if !ok {
		return nil, fmt.Errorf("%w: unknown bet type %q", ErrInvalidBet, t)
	}
	if len(numbers) != want {
		return nil, fmt.Errorf("%w: %s covers %d numbers, got %d", ErrInvalidBet, t, want, len(numbers))
	}

	sorted := slices.Clone(numbers)
	slices.Sort(sorted)
	for i, n := range sorted {
		if n < 0 || n > 36 {
			return nil, fmt.Errorf("%w: number %d out of range", ErrInvalidBet, n)
		}
		if i > 0 && sorted[i-1] == n {
			return nil, fmt.Errorf("%w: duplicated number %d", ErrInvalidBet, n)
		}
	}

	if !validShape(t, sorted) {
		return nil, fmt.Errorf("%w: numbers %v do not form a %s", ErrInvalidBet, sorted, t)
	}
	return sorted, nil
}

// validShape confere a geometria no layout de 3 colunas (linha r = 3r+1..3r+3)
func validShape(t BetType, s []int) bool {
	switch t {
	case Straight:
		return true
	case Split:
		a, b := s[0], s[1]
		if a == 0 {
			return b <= 3
		}
		return (b-a == 1 && a%3 != 0) || b-a == 3
	case Street:
		if s[0] == 0 {
			return slices.Equal(s, []int{0, 1, 2}) || slices.Equal(s, []int{0, 2, 3})
		}
		return s[0]%3 == 1 && consecutive(s)
	case Corner:
		if s[0] == 0 {
			return slices.Equal(s, []int{0, 1, 2, 3})
		}
		n := s[0]
		return n%3 != 0 && slices.Equal(s, []int{n, n + 1, n + 3, n + 4})
	case Line:
		return s[0]%3 == 1 && consecutive(s)
	case Dozen:
		return (s[0] == 1 || s[0] == 13 || s[0] == 25) && consecutive(s)
	case Column:
		if s[0] == 0 {
			return false
		}
		for _, n := range s {
			if n%3 != s[0]%3 {
				return false
			}
		}
		return true
	case EvenMoney:
		for _, set := range evenMoneySets() {
			if slices.Equal(s, set) {
				return true
			}
		}
		return false
	}
	return false
}

func consecutive(s []int) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[i-1]+1 {
			return false
		}
	}
	return true
}

// evenMoneySets retorna vermelho, preto, ímpar, par, 1-18 e 19-36, ordenados
func evenMoneySets() [][]int {
	var black, odd, even, low, high []int
	for n := 1; n <= 36; n++ {
		if !slices.Contains(RedNumbers, n) {
			black = append(black, n)
		}
		if n%2 == 1 {
			odd = append(odd, n)
		} else {
			even = append(even, n)
		}
		if n <= 18 {
			low = append(low, n)
		} else {
			high = append(high, n)
		}
	}
	return [][]int{RedNumbers, black, odd, even, low, high}
}
