package roulette

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRegistry_Login(t *testing.T) {
	r := NewRegistry(testTable)
	s, err := r.Login()
	require.NoError(t, err)
	assert.Len(t, s.ID, 32)
	assert.Equal(t, int64(10000), s.Bankroll())

	got, err := r.Resolve(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = r.Resolve("nope")
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.ErrorIs(t, r.Touch("nope"), ErrInvalidSession)
}

func TestRegistry_LoginIDsAreUnique(t *testing.T) {
	r := NewRegistry(testTable)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s, err := r.Login()
		require.NoError(t, err)
		require.False(t, seen[s.ID])
		seen[s.ID] = true
	}
	assert.Equal(t, 1000, r.Len())
}

func TestRegistry_SweepEvictsIdleSessions(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(testTable, WithClock(clock.Now))

	idle, err := r.Login()
	require.NoError(t, err)
	active, err := r.Login()
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	require.NoError(t, r.Touch(active.ID))
	clock.Advance(11 * time.Minute)

	evicted := r.Sweep(clock.Now(), 30*time.Minute)
	assert.Equal(t, []string{idle.ID}, evicted)

	_, err = r.Resolve(idle.ID)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = r.Resolve(active.ID)
	assert.NoError(t, err)

	// exatamente no limite a sessão sobrevive
	clock.Advance(19 * time.Minute)
	assert.Empty(t, r.Sweep(clock.Now(), 30*time.Minute))
}

func TestRegistry_SweepSkipsAcquiredSessions(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(testTable, WithClock(clock.Now))
	s, err := r.Login()
	require.NoError(t, err)

	held, err := r.Acquire(s.ID)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	assert.Empty(t, r.Sweep(clock.Now(), time.Minute))
	r.Release(held)

	clock.Advance(time.Hour)
	assert.Equal(t, []string{s.ID}, r.Sweep(clock.Now(), time.Minute))
}

func TestRegistry_RunSweeper(t *testing.T) {
	clock := newFakeClock()
	var evicted atomic.Int32
	r := NewRegistry(testTable, WithClock(clock.Now))
	r.OnEvict = func(string) { evicted.Add(1) }

	_, err := r.Login()
	require.NoError(t, err)
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunSweeper(ctx, 5*time.Millisecond, time.Minute)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, int32(1), evicted.Load())
}

func TestRegistry_ConcurrentSessionsAreIndependent(t *testing.T) {
	r := NewRegistry(testTable, WithGenerator(NewFixedGenerator(17)))
	const players = 32

	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.Login()
			if !assert.NoError(t, err) {
				return
			}
			for round := 0; round < 10; round++ {
				held, err := r.Acquire(s.ID)
				if !assert.NoError(t, err) {
					return
				}
				_, err = held.PlaceBet(Straight, []int{17}, 10)
				assert.NoError(t, err)
				_, err = held.Spin("")
				assert.NoError(t, err)
				r.Release(held)
			}
			assert.Equal(t, int64(10000+10*350), s.Bankroll())
		}()
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				r.Sweep(time.Now(), time.Hour)
			}
		}
	}()
	wg.Wait()
	close(stop)
	assert.Equal(t, players, r.Len())
}
