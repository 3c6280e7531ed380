package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out timer channels and fires them only when the test
// says so, making the 2-second cadence fully deterministic.
type fakeClock struct {
	mu      sync.Mutex
	waiters []chan time.Time
}

func (c *fakeClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()
	return ch
}

// tick fires the oldest pending timer, waiting for one to be registered.
func (c *fakeClock) tick(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		c.mu.Lock()
		if len(c.waiters) > 0 {
			ch := c.waiters[0]
			c.waiters = c.waiters[1:]
			c.mu.Unlock()
			ch <- time.Now()
			return
		}
		c.mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatal("no timer waiter appeared")
		}
		time.Sleep(time.Millisecond)
	}
}

func (c *fakeClock) hasWaiter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters) > 0
}

// scriptedFetcher returns the scripted observation for each call; the last
// entry repeats.
type scriptedFetcher struct {
	mu     sync.Mutex
	calls  int
	script []func() (*Status, error)
}

func (f *scriptedFetcher) GetStatus(_ context.Context, cvID string) (*Status, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.mu.Unlock()
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	return f.script[i]()
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func processing(progress int) func() (*Status, error) {
	return func() (*Status, error) {
		return &Status{CVID: "cv-123", Status: StatusProcessing, ProgressPercentage: progress}, nil
	}
}

func terminal(status string) func() (*Status, error) {
	return func() (*Status, error) {
		return &Status{CVID: "cv-123", Status: status, ProgressPercentage: 100}, nil
	}
}

func waitForCalls(t *testing.T, f *scriptedFetcher, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for f.callCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d calls, saw %d", n, f.callCount())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPoller_FirstQueryFiresImmediately(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*Status, error){terminal(StatusCompleted)}}
	clock := &fakeClock{}
	poller := NewPollerWithClock(fetcher, DefaultPollInterval, clock)

	session := poller.Start(context.Background(), "cv-123", nil)
	status, err := session.Wait()

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, 1, fetcher.callCount(), "terminal on the immediate query needs no tick at all")
}

func TestPoller_OneQueryPerTick(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*Status, error){
		processing(10),
		processing(40),
		terminal(StatusCompleted),
	}}
	clock := &fakeClock{}
	poller := NewPollerWithClock(fetcher, DefaultPollInterval, clock)

	var observed []int
	var mu sync.Mutex
	session := poller.Start(context.Background(), "cv-123", func(st Status) {
		mu.Lock()
		observed = append(observed, st.ProgressPercentage)
		mu.Unlock()
	})

	waitForCalls(t, fetcher, 1)
	// no tick yet: the loop must be parked on the timer, not re-querying
	assert.Equal(t, 1, fetcher.callCount())

	clock.tick(t)
	waitForCalls(t, fetcher, 2)
	assert.Equal(t, 2, fetcher.callCount())

	clock.tick(t)
	status, err := session.Wait()
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, 3, fetcher.callCount())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{10, 40, 100}, observed, "every observation including the terminal one is delivered in order")
}

func TestPoller_StopsOnFailedStatus(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*Status, error){
		processing(40),
		func() (*Status, error) {
			return &Status{CVID: "cv-123", Status: StatusFailed, ErrorMessage: "parse: bad model reply"}, nil
		},
	}}
	clock := &fakeClock{}
	poller := NewPollerWithClock(fetcher, DefaultPollInterval, clock)

	session := poller.Start(context.Background(), "cv-123", nil)
	waitForCalls(t, fetcher, 1)
	clock.tick(t)

	status, err := session.Wait()
	require.ErrorIs(t, err, ErrProcessingFailed, "failed is a business outcome, not a transport error")
	assert.False(t, IsTransport(err))
	assert.Equal(t, StatusFailed, status.Status)

	// simulate further ticks: no timer may be pending and no query may fire
	time.Sleep(10 * time.Millisecond)
	assert.False(t, clock.hasWaiter(), "no timer scheduled after terminal status")
	assert.Equal(t, 2, fetcher.callCount())
}

func TestPoller_TransportErrorStopsWithoutRetry(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*Status, error){
		func() (*Status, error) {
			return nil, &TransportError{Op: "status", Err: errors.New("connection refused")}
		},
	}}
	clock := &fakeClock{}
	poller := NewPollerWithClock(fetcher, DefaultPollInterval, clock)

	session := poller.Start(context.Background(), "cv-123", nil)
	_, err := session.Wait()

	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.NotErrorIs(t, err, ErrProcessingFailed)
	assert.Equal(t, 1, fetcher.callCount(), "transport failure ends the cycle, no automatic retry")
	assert.False(t, clock.hasWaiter())
}

func TestPoller_StopCancelsDeterministically(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*Status, error){processing(10)}}
	clock := &fakeClock{}
	poller := NewPollerWithClock(fetcher, DefaultPollInterval, clock)

	session := poller.Start(context.Background(), "cv-123", nil)
	waitForCalls(t, fetcher, 1)

	session.Stop()
	session.Stop() // idempotent

	_, err := session.Wait()
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, 1, fetcher.callCount(), "no query fires after cancellation")
}

func TestPoller_NewSessionReplacesPriorForSameID(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*Status, error){
		processing(10),
		terminal(StatusCompleted),
	}}
	clock := &fakeClock{}
	poller := NewPollerWithClock(fetcher, DefaultPollInterval, clock)

	first := poller.Start(context.Background(), "cv-123", nil)
	waitForCalls(t, fetcher, 1)

	second := poller.Start(context.Background(), "cv-123", nil)

	_, err := first.Wait()
	assert.ErrorIs(t, err, ErrStopped, "starting a new session implicitly cancels the prior one")

	status, err := second.Wait()
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
}

func TestPoller_ContextCancellation(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*Status, error){processing(10)}}
	clock := &fakeClock{}
	poller := NewPollerWithClock(fetcher, DefaultPollInterval, clock)

	ctx, cancel := context.WithCancel(context.Background())
	session := poller.Start(ctx, "cv-123", nil)
	waitForCalls(t, fetcher, 1)

	cancel()
	_, err := session.Wait()
	assert.ErrorIs(t, err, context.Canceled)
}
