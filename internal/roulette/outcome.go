package roulette

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"sync"
)

// Pockets é a quantidade de casas da roleta europeia (0..36)
const Pockets = 37

// Generator produz o número vencedor de uma rodada
type Generator interface {
	Next() (int, error)
}

// CryptoGenerator sorteia usando a fonte segura do processo
// Reader pode ser trocado em testes; nil usa crypto/rand.Reader
type CryptoGenerator struct {
	Reader io.Reader
}

func NewCryptoGenerator() *CryptoGenerator { return &CryptoGenerator{} }

// Next retorna um inteiro uniforme em [0,36]
func (g *CryptoGenerator) Next() (int, error) {
	r := g.Reader
	if r == nil {
		r = rand.Reader
	}
	n, err := rand.Int(r, big.NewInt(Pockets))
	if err != nil {
		return 0, fmt.Errorf("draw outcome: %w", err)
	}
	return int(n.Int64()), nil
}

// FixedGenerator devolve uma sequência pré-definida de números, em ciclo
// Usado em testes e simulações determinísticas
type FixedGenerator struct {
	mu      sync.Mutex
	numbers []int
	pos     int
	calls   int
}

func NewFixedGenerator(numbers ...int) *FixedGenerator {
	return &FixedGenerator{numbers: numbers}
}

func (g *FixedGenerator) Next() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.numbers) == 0 {
		return 0, fmt.Errorf("fixed generator: empty sequence")
	}
	n := g.numbers[g.pos%len(g.numbers)]
	g.pos++
	g.calls++
	return n, nil
}

// Calls retorna quantas vezes Next foi chamado
func (g *FixedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
