package producer

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	skafka "github.com/radieske/roulette-table-poc/internal/shared/kafka"
	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

// KafkaPublisher publica rodadas liquidadas no tópico de rodadas
type KafkaPublisher struct {
	Writer skafka.MessageWriter
	Topic  string
}

func NewKafkaPublisher(w skafka.MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

// Deliver implementa events.Sink
func (p *KafkaPublisher) Deliver(ctx context.Context, e cevents.RoundSettled) error {
	return p.PublishRoundSettled(ctx, e)
}

// PublishRoundSettled usa o roundId como chave: reentregas caem na mesma partição
func (p *KafkaPublisher) PublishRoundSettled(ctx context.Context, e cevents.RoundSettled) error {
	header := kafka.Header{Key: "table_id", Value: []byte(e.TableID)}
	if err := skafka.WriteJSON(ctx, p.Writer, e.RoundID, e, header); err != nil {
		return fmt.Errorf("publish round %s: %w", e.RoundID, err)
	}
	return nil
}
