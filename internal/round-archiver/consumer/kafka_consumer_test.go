package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

// fakeReader entrega as mensagens em ordem e cancela o contexto quando acabam
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) == 0 {
		r.mu.Unlock()
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	r.mu.Unlock()
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type mockStore struct{ mock.Mock }

func (s *mockStore) InsertRound(ctx context.Context, e cevents.RoundSettled) (bool, error) {
	args := s.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

type captureDLQ struct{ msgs []kafka.Message }

func (c *captureDLQ) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func roundMsg(t *testing.T, offset int64, id string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(cevents.RoundSettled{RoundID: id, TableID: "t1", WinningNumber: 7})
	require.NoError(t, err)
	return kafka.Message{Topic: "roulette_round_settled", Offset: offset, Key: []byte(id), Value: b}
}

func run(t *testing.T, p *Processor, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	p.Reader = r
	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessorArchivesAndCommits(t *testing.T) {
	store := new(mockStore)
	store.On("InsertRound", mock.Anything, mock.MatchedBy(func(e cevents.RoundSettled) bool { return e.RoundID == "r1" })).Return(true, nil)
	store.On("InsertRound", mock.Anything, mock.MatchedBy(func(e cevents.RoundSettled) bool { return e.RoundID == "r2" })).Return(false, nil)

	var consumed, persisted int
	p := &Processor{
		Log:        zap.NewNop(),
		Repo:       store,
		OnConsumed: func() { consumed++ },
		OnPersist:  func() { persisted++ },
	}
	r := &fakeReader{msgs: []kafka.Message{roundMsg(t, 10, "r1"), roundMsg(t, 11, "r2")}}
	run(t, p, r)

	assert.Equal(t, []int64{10, 11}, r.committed)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, 1, persisted) // r2 já estava arquivada
	store.AssertExpectations(t)
}

func TestProcessorSendsUndecodableToDLQ(t *testing.T) {
	store := new(mockStore)
	dlq := &captureDLQ{}
	var stages []string
	p := &Processor{
		Log:     zap.NewNop(),
		Repo:    store,
		DLQ:     dlq,
		OnError: func(s string) { stages = append(stages, s) },
	}
	r := &fakeReader{msgs: []kafka.Message{
		{Topic: "roulette_round_settled", Offset: 3, Value: []byte("{not json")},
		{Topic: "roulette_round_settled", Offset: 4, Value: []byte(`{"table_id":"t1"}`)},
	}}
	run(t, p, r)

	require.Len(t, dlq.msgs, 2)
	last := dlq.msgs[0].Headers[len(dlq.msgs[0].Headers)-2]
	assert.Equal(t, "dlq_reason", last.Key)
	assert.Equal(t, "decode", string(last.Value))
	assert.Equal(t, []int64{3, 4}, r.committed)
	assert.Equal(t, []string{"decode", "decode"}, stages)
	store.AssertNotCalled(t, "InsertRound", mock.Anything, mock.Anything)
}

func TestProcessorRetriesThenDeadLetters(t *testing.T) {
	store := new(mockStore)
	store.On("InsertRound", mock.Anything, mock.Anything).Return(false, errors.New("connection refused"))
	dlq := &captureDLQ{}
	p := &Processor{
		Log:     zap.NewNop(),
		Repo:    store,
		DLQ:     dlq,
		Retries: 2,
		Backoff: time.Millisecond,
	}
	r := &fakeReader{msgs: []kafka.Message{roundMsg(t, 20, "r1")}}
	run(t, p, r)

	store.AssertNumberOfCalls(t, "InsertRound", 2)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "r1", string(dlq.msgs[0].Key))
	assert.Equal(t, []int64{20}, r.committed)
}

func TestProcessorWithoutDLQKeepsRetrying(t *testing.T) {
	store := new(mockStore)
	store.On("InsertRound", mock.Anything, mock.Anything).Return(false, errors.New("down")).Twice()
	store.On("InsertRound", mock.Anything, mock.Anything).Return(true, nil).Once()

	p := &Processor{Log: zap.NewNop(), Repo: store, Backoff: time.Millisecond}
	r := &fakeReader{msgs: []kafka.Message{roundMsg(t, 30, "r1")}}
	run(t, p, r)

	store.AssertNumberOfCalls(t, "InsertRound", 3)
	assert.Equal(t, []int64{30}, r.committed)
}
