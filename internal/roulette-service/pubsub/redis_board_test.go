package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

func newBoard(t *testing.T, size int) (*RedisBoard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisBoard(rdb, "results", size, zap.NewNop()), mr
}

func TestBoardKeepsLastNumbersNewestFirst(t *testing.T) {
	b, _ := newBoard(t, 3)
	ctx := context.Background()

	for i, n := range []int{5, 17, 0, 32} {
		require.NoError(t, b.Deliver(ctx, cevents.RoundSettled{RoundID: string(rune('a' + i)), TableID: "t1", WinningNumber: n}))
	}
	got, err := b.Recent(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []int{32, 0, 17}, got)

	other, err := b.Recent(ctx, "t2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBoardPublishesUpdates(t *testing.T) {
	b, _ := newBoard(t, 12)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan ResultUpdate, 1)
	b.Subscribe(ctx, func(u ResultUpdate) {
		select {
		case got <- u:
		default:
		}
	})

	// a inscrição é assíncrona: republica até o assinante receber
	require.Eventually(t, func() bool {
		_ = b.Deliver(ctx, cevents.RoundSettled{RoundID: "r1", TableID: "t1", WinningNumber: 17})
		select {
		case u := <-got:
			assert.Equal(t, ResultUpdate{TableID: "t1", RoundID: "r1", WinningNumber: 17}, u)
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, b.Ping(ctx))
}
