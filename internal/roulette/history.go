package roulette

import "time"

// DefaultHistoryCapacity é a quantidade de rodadas mantidas por sessão
const DefaultHistoryCapacity = 50

// BetResult é uma aposta da rodada com o retorno apurado
type BetResult struct {
	Bet
	Won    bool  `json:"won"`
	Payout int64 `json:"payout"`
}

// Round é uma entrada imutável do histórico, criada uma vez por rodada liquidada
type Round struct {
	ID            string      `json:"roundId"`
	WinningNumber int         `json:"winningNumber"`
	Bets          []BetResult `json:"bets"`
	TotalWagered  int64       `json:"totalWagered"`
	TotalWon      int64       `json:"totalWon"`
	NetProfit     int64       `json:"netProfit"`
	Bankroll      int64       `json:"bankroll"`
	SettledAt     time.Time   `json:"settledAt"`
}

// History é um buffer circular FIFO de rodadas
type History struct {
	entries []Round
	start   int
	size    int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{entries: make([]Round, capacity)}
}

// Append adiciona a rodada, descartando a mais antiga quando cheio
func (h *History) Append(r Round) {
	capacity := len(h.entries)
	if h.size < capacity {
		h.entries[(h.start+h.size)%capacity] = r
		h.size++
		return
	}
	h.entries[h.start] = r
	h.start = (h.start + 1) % capacity
}

func (h *History) Len() int      { return h.size }
func (h *History) Capacity() int { return len(h.entries) }

// Recent retorna até limit rodadas mais recentes, da mais antiga para a mais nova
// limit <= 0 retorna todas
func (h *History) Recent(limit int) []Round {
	if limit <= 0 || limit > h.size {
		limit = h.size
	}
	out := make([]Round, 0, limit)
	for i := h.size - limit; i < h.size; i++ {
		out = append(out, h.entries[(h.start+i)%len(h.entries)])
	}
	return out
}

// Last retorna a rodada mais recente
func (h *History) Last() (Round, bool) {
	if h.size == 0 {
		return Round{}, false
	}
	return h.entries[(h.start+h.size-1)%len(h.entries)], true
}
