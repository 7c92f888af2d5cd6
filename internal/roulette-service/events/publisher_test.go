package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

type mockSink struct {
	mock.Mock
	mu  sync.Mutex
	got []string
}

func (m *mockSink) Name() string { return "mock" }

func (m *mockSink) Deliver(ctx context.Context, ev cevents.RoundSettled) error {
	args := m.Called(ctx, ev)
	m.mu.Lock()
	m.got = append(m.got, ev.RoundID)
	m.mu.Unlock()
	return args.Error(0)
}

func (m *mockSink) delivered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.got...)
}

func TestPublisherFansOutToAllSinks(t *testing.T) {
	a, b := new(mockSink), new(mockSink)
	a.On("Deliver", mock.Anything, mock.Anything).Return(nil)
	b.On("Deliver", mock.Anything, mock.Anything).Return(nil)

	p := NewPublisher(zap.NewNop(), 8, a, b)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { p.Run(ctx); close(done) }()

	p.Publish(cevents.RoundSettled{RoundID: "r1"})
	p.Publish(cevents.RoundSettled{RoundID: "r2"})

	require.Eventually(t, func() bool { return len(b.delivered()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []string{"r1", "r2"}, a.delivered())
	assert.Equal(t, []string{"r1", "r2"}, b.delivered())
}

func TestPublisherDropsWhenFull(t *testing.T) {
	s := new(mockSink)
	s.On("Deliver", mock.Anything, mock.Anything).Return(nil)

	p := NewPublisher(zap.NewNop(), 1, s)
	var drops int
	p.OnDrop = func() { drops++ }

	// sem worker rodando: o primeiro ocupa o buffer, os demais são descartados
	p.Publish(cevents.RoundSettled{RoundID: "r1"})
	p.Publish(cevents.RoundSettled{RoundID: "r2"})
	p.Publish(cevents.RoundSettled{RoundID: "r3"})
	assert.Equal(t, 2, drops)

	p.Close()
	p.Run(context.Background())
	assert.Equal(t, []string{"r1"}, s.delivered())
}

func TestPublisherReportsSinkErrors(t *testing.T) {
	s := new(mockSink)
	s.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	p := NewPublisher(zap.NewNop(), 4, s)
	var failed []string
	p.OnSinkError = func(name string) { failed = append(failed, name) }

	p.Publish(cevents.RoundSettled{RoundID: "r1"})
	p.Close()
	p.Run(context.Background())

	assert.Equal(t, []string{"mock"}, failed)
	s.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestPublishAfterCloseIsIgnored(t *testing.T) {
	s := new(mockSink)
	p := NewPublisher(zap.NewNop(), 4, s)
	p.Close()
	p.Publish(cevents.RoundSettled{RoundID: "late"})
	p.Run(context.Background())
	s.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}
