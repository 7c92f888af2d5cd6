package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

// ResultUpdate é o payload publicado no canal de resultados
type ResultUpdate struct {
	TableID       string `json:"tableId"`
	RoundID       string `json:"roundId"`
	WinningNumber int    `json:"winningNumber"`
	TsUnixMs      int64  `json:"ts"`
}

// RedisBoard mantém o painel dos últimos números sorteados por mesa
// e avisa as outras instâncias pelo canal Pub/Sub
type RedisBoard struct {
	r       *redis.Client
	channel string
	size    int
	log     *zap.Logger
}

func NewRedisBoard(r *redis.Client, channel string, size int, log *zap.Logger) *RedisBoard {
	if size < 1 {
		size = 12
	}
	return &RedisBoard{r: r, channel: channel, size: size, log: log}
}

// key gera a chave da lista de resultados da mesa
func key(tableID string) string { return "roulette:results:" + tableID }

func (b *RedisBoard) Name() string { return "redis" }

// Deliver implementa events.Sink: registra o número e publica a atualização
func (b *RedisBoard) Deliver(ctx context.Context, ev cevents.RoundSettled) error {
	payload, err := json.Marshal(ResultUpdate{
		TableID:       ev.TableID,
		RoundID:       ev.RoundID,
		WinningNumber: ev.WinningNumber,
		TsUnixMs:      ev.TsUnixMs,
	})
	if err != nil {
		return err
	}

	k := key(ev.TableID)
	_, err = b.r.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, k, ev.WinningNumber)
		p.LTrim(ctx, k, 0, int64(b.size-1))
		p.Publish(ctx, b.channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record result %s: %w", ev.RoundID, err)
	}
	return nil
}

// Recent retorna os números da mesa, do mais recente para o mais antigo
func (b *RedisBoard) Recent(ctx context.Context, tableID string) ([]int, error) {
	vals, err := b.r.LRange(ctx, key(tableID), 0, int64(b.size-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Subscribe escuta o canal de resultados e repassa cada atualização para fn
// Roda em goroutine própria até ctx ser cancelado
func (b *RedisBoard) Subscribe(ctx context.Context, fn func(ResultUpdate)) {
	sub := b.r.Subscribe(ctx, b.channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var upd ResultUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
					b.log.Warn("results subscriber unmarshal error", zap.Error(err))
					continue
				}
				fn(upd)
			}
		}
	}()
}

// Ping verifica a conexão (healthz)
func (b *RedisBoard) Ping(ctx context.Context) error {
	return b.r.Ping(ctx).Err()
}
