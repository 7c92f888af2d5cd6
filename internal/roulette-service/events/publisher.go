package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

// Sink entrega um evento de rodada a um destino externo (Kafka, Redis...)
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev cevents.RoundSettled) error
}

// Publisher desacopla a liquidação da entrega: Publish nunca bloqueia
// Um worker consome o buffer e repassa cada evento a todos os sinks
type Publisher struct {
	log     *zap.Logger
	sinks   []Sink
	ch      chan cevents.RoundSettled
	timeout time.Duration

	closeOnce sync.Once
	done      chan struct{}

	// callbacks de métricas
	OnDrop      func()
	OnSinkError func(sink string)
}

// NewPublisher cria o publisher com buffer de tamanho buffer (mínimo 1)
func NewPublisher(log *zap.Logger, buffer int, sinks ...Sink) *Publisher {
	if buffer < 1 {
		buffer = 1
	}
	return &Publisher{
		log:     log,
		sinks:   sinks,
		ch:      make(chan cevents.RoundSettled, buffer),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
}

// Publish enfileira o evento; com buffer cheio o evento é descartado
func (p *Publisher) Publish(ev cevents.RoundSettled) {
	select {
	case <-p.done:
		return
	default:
	}
	select {
	case p.ch <- ev:
	default:
		if p.OnDrop != nil {
			p.OnDrop()
		}
		p.log.Warn("round event dropped: buffer full", zap.String("round_id", ev.RoundID))
	}
}

// Run consome o buffer até ctx ser cancelado ou Close ser chamado
// Ao sair, entrega o que ainda estiver no buffer
func (p *Publisher) Run(ctx context.Context) {
	// entregas em andamento não são interrompidas pelo cancelamento do servidor
	base := context.WithoutCancel(ctx)
	for {
		select {
		case ev := <-p.ch:
			p.deliver(base, ev)
		case <-ctx.Done():
			p.drain()
			return
		case <-p.done:
			p.drain()
			return
		}
	}
}

// Close impede novas publicações e sinaliza o worker para esvaziar o buffer
func (p *Publisher) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	for {
		select {
		case ev := <-p.ch:
			p.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(parent context.Context, ev cevents.RoundSettled) {
	for _, s := range p.sinks {
		ctx, cancel := context.WithTimeout(parent, p.timeout)
		err := s.Deliver(ctx, ev)
		cancel()
		if err != nil {
			if p.OnSinkError != nil {
				p.OnSinkError(s.Name())
			}
			p.log.Error("round event delivery failed",
				zap.String("sink", s.Name()),
				zap.String("round_id", ev.RoundID),
				zap.Error(err),
			)
		}
	}
}
