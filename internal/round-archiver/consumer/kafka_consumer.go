package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

// Reader é o subconjunto de *kafka.Reader usado pelo worker
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Store persiste uma rodada; false indica rodada já arquivada
type Store interface {
	InsertRound(ctx context.Context, e cevents.RoundSettled) (bool, error)
}

// Writer publica mensagens (DLQ)
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Processor consome rodadas liquidadas do Kafka e arquiva no Postgres
// O offset só é confirmado depois da gravação (ou do envio para a DLQ)
type Processor struct {
	Log    *zap.Logger
	Reader Reader
	Repo   Store
	DLQ    Writer // opcional: sem DLQ a gravação é repetida até funcionar

	Retries int           // tentativas antes da DLQ
	Backoff time.Duration // espera base entre tentativas

	OnConsumed func()       // métricas (counter++)
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.fail("read")
			if !sleep(ctx, p.backoff()) {
				return ctx.Err()
			}
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.handle(ctx, m); err != nil {
			// só sai daqui com contexto cancelado: a mensagem será relida
			return err
		}
		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
			p.fail("commit")
		}
	}
}

func (p *Processor) handle(ctx context.Context, m kafka.Message) error {
	var ev cevents.RoundSettled
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.Log.Warn("invalid message", zap.Int64("offset", m.Offset), zap.Error(err))
		p.fail("decode")
		return p.deadLetter(ctx, m, "decode")
	}
	if ev.RoundID == "" {
		p.Log.Warn("message without round id", zap.Int64("offset", m.Offset))
		p.fail("decode")
		return p.deadLetter(ctx, m, "decode")
	}

	for attempt := 1; ; attempt++ {
		inserted, err := p.Repo.InsertRound(ctx, ev)
		if err == nil {
			if inserted && p.OnPersist != nil {
				p.OnPersist()
			}
			if !inserted {
				p.Log.Debug("round already archived", zap.String("round_id", ev.RoundID))
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.Log.Warn("db insert failed", zap.String("round_id", ev.RoundID), zap.Int("attempt", attempt), zap.Error(err))
		p.fail("db_insert")

		if p.DLQ != nil && attempt >= p.retries() {
			return p.deadLetter(ctx, m, "db_insert")
		}
		if !sleep(ctx, time.Duration(attempt)*p.backoff()) {
			return ctx.Err()
		}
	}
}

// deadLetter copia a mensagem para a DLQ com o motivo no header
// Sem DLQ configurada a mensagem é descartada (já foi logada)
func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, reason string) error {
	if p.DLQ == nil {
		return nil
	}
	dl := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(append([]kafka.Header(nil), m.Headers...),
			kafka.Header{Key: "dlq_reason", Value: []byte(reason)},
			kafka.Header{Key: "dlq_source", Value: []byte(fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset))},
		),
	}
	for {
		err := p.DLQ.WriteMessages(ctx, dl)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.Log.Error("dlq write failed", zap.Error(err))
		p.fail("dlq")
		if !sleep(ctx, p.backoff()) {
			return ctx.Err()
		}
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func (p *Processor) retries() int {
	if p.Retries <= 0 {
		return 3
	}
	return p.Retries
}

func (p *Processor) backoff() time.Duration {
	if p.Backoff <= 0 {
		return 500 * time.Millisecond
	}
	return p.Backoff
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
