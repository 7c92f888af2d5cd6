package roulette

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoGenerator_Range(t *testing.T) {
	g := NewCryptoGenerator()
	for i := 0; i < 5000; i++ {
		n, err := g.Next()
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, Pockets)
	}
}

// Teste de aderência qui-quadrado com 36 graus de liberdade.
// O valor crítico para p = 0.0001 é ~77.4; uma fonte uniforme passa com folga.
func TestCryptoGenerator_Distribution(t *testing.T) {
	if testing.Short() {
		t.Skip("distribution test skipped in short mode")
	}
	const trials = 370000
	g := NewCryptoGenerator()

	var counts [Pockets]int
	for i := 0; i < trials; i++ {
		n, err := g.Next()
		require.NoError(t, err)
		counts[n]++
	}

	expected := float64(trials) / Pockets
	var chi2 float64
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	assert.Less(t, chi2, 77.4, "chi-square %.2f too high, counts %v", chi2, counts)
}

func TestCryptoGenerator_SourceError(t *testing.T) {
	g := &CryptoGenerator{Reader: bytes.NewReader(nil)}
	_, err := g.Next()
	assert.Error(t, err)
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator(17, 0)
	for _, want := range []int{17, 0, 17} {
		n, err := g.Next()
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, 3, g.Calls())

	_, err := NewFixedGenerator().Next()
	assert.Error(t, err)
}
