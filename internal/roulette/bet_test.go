package roulette

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, to, step int) []int {
	var out []int
	for n := from; n <= to; n += step {
		out = append(out, n)
	}
	return out
}

func TestNewBet_ValidShapes(t *testing.T) {
	cases := []struct {
		name    string
		typ     BetType
		numbers []int
	}{
		{"straight zero", Straight, []int{0}},
		{"straight", Straight, []int{36}},
		{"split horizontal", Split, []int{2, 1}},
		{"split vertical", Split, []int{14, 17}},
		{"split with zero", Split, []int{0, 3}},
		{"street", Street, []int{34, 35, 36}},
		{"street zero trio", Street, []int{0, 2, 3}},
		{"corner", Corner, []int{8, 9, 11, 12}},
		{"corner first four", Corner, []int{0, 1, 2, 3}},
		{"line", Line, seq(31, 36, 1)},
		{"dozen", Dozen, seq(13, 24, 1)},
		{"column", Column, seq(2, 35, 3)},
		{"red", EvenMoney, RedNumbers},
		{"even", EvenMoney, seq(2, 36, 2)},
		{"high", EvenMoney, seq(19, 36, 1)},
	}
	now := time.Now()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := NewBet(tc.typ, tc.numbers, 10, now)
			require.NoError(t, err)
			assert.Len(t, b.Numbers, len(tc.numbers))
			assert.IsNonDecreasing(t, b.Numbers)
			assert.Equal(t, int64(10), b.Amount)
		})
	}
}

func TestNewBet_Rejected(t *testing.T) {
	cases := []struct {
		name    string
		typ     BetType
		numbers []int
		amount  int64
	}{
		{"zero amount", Straight, []int{1}, 0},
		{"negative amount", Straight, []int{1}, -5},
		{"out of range", Straight, []int{37}, 10},
		{"wrong size", Split, []int{1}, 10},
		{"duplicate", Split, []int{4, 4}, 10},
		{"split across rows", Split, []int{3, 4}, 10},
		{"split far apart", Split, []int{1, 5}, 10},
		{"street not a row", Street, []int{2, 3, 4}, 10},
		{"corner across column edge", Corner, []int{3, 4, 6, 7}, 10},
		{"line misaligned", Line, seq(2, 7, 1), 10},
		{"dozen misaligned", Dozen, seq(2, 13, 1), 10},
		{"column mixed", Column, append(seq(1, 31, 3), 2), 10},
		{"even money arbitrary", EvenMoney, append(seq(1, 17, 1), 20), 10},
		{"unknown type", BetType("basket"), []int{0, 1, 2, 3, 4}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBet(tc.typ, tc.numbers, tc.amount, time.Now())
			assert.ErrorIs(t, err, ErrInvalidBet)
		})
	}
}

func TestNewBet_TagIsCanonical(t *testing.T) {
	a, err := NewBet(Split, []int{2, 1}, 10, time.Now())
	require.NoError(t, err)
	b, err := NewBet(Split, []int{1, 2}, 10, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "split:1-2", a.Tag)
	assert.Equal(t, a.Tag, b.Tag)
	assert.True(t, a.Covers(2))
	assert.False(t, a.Covers(3))
}

func TestParseBetType(t *testing.T) {
	bt, err := ParseBetType(" Even-Money ")
	require.NoError(t, err)
	assert.Equal(t, EvenMoney, bt)

	_, err = ParseBetType("basket")
	assert.ErrorIs(t, err, ErrInvalidBet)
}

func TestLimits(t *testing.T) {
	l := Limits{BaseChip: 10}
	assert.Equal(t, int64(25000), l.Ceiling(Straight))
	assert.Equal(t, int64(10000), l.Ceiling(Corner))
	assert.NoError(t, l.Check(Straight, 24000, 1000))
	assert.ErrorIs(t, l.Check(Straight, 24000, 1001), ErrInvalidBet)
	assert.NoError(t, Limits{}.Check(Straight, 1e9, 1e9))
}
