package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrStopped is the session outcome when polling was cancelled before a
// terminal status was observed.
var ErrStopped = errors.New("poll session stopped")

// DefaultPollInterval is the fixed status-poll cadence. No backoff: expected
// processing time is bounded, so a constant interval keeps the driver simple.
const DefaultPollInterval = 2 * time.Second

// Clock abstracts timer creation so tests can drive ticks deterministically.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// StatusFetcher is the one call the poller needs; *Client satisfies it.
type StatusFetcher interface {
	GetStatus(ctx context.Context, cvID string) (*Status, error)
}

// Poller runs at most one poll session per cv id. Starting a session for an
// id that already has one stops the old session first, so overlapping polls
// for the same id cannot happen.
type Poller struct {
	mu       sync.Mutex
	sessions map[string]*PollSession
	api      StatusFetcher
	interval time.Duration
	clock    Clock
}

func NewPoller(api StatusFetcher) *Poller {
	return &Poller{
		sessions: make(map[string]*PollSession),
		api:      api,
		interval: DefaultPollInterval,
		clock:    realClock{},
	}
}

// NewPollerWithClock is for tests that need a fake clock or interval.
func NewPollerWithClock(api StatusFetcher, interval time.Duration, clock Clock) *Poller {
	p := NewPoller(api)
	p.interval = interval
	p.clock = clock
	return p
}

// PollSession is one cancellable poll loop. Stop is deterministic: once it
// returns, no later query result can invoke the observer or change the
// session outcome.
type PollSession struct {
	cvID string

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	mu   sync.Mutex
	last *Status
	err  error
}

// Start begins polling cvID. The first query fires immediately; subsequent
// queries run at the fixed interval, strictly sequentially. onStatus is
// invoked for every observed status, including the terminal one.
//
// The session ends when a terminal status is observed, when a transport
// error occurs (no automatic retry), when ctx is done, or when Stop is
// called.
func (p *Poller) Start(ctx context.Context, cvID string, onStatus func(Status)) *PollSession {
	session := &PollSession{
		cvID:   cvID,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	p.mu.Lock()
	if prev, ok := p.sessions[cvID]; ok {
		prev.Stop()
	}
	p.sessions[cvID] = session
	p.mu.Unlock()

	go p.run(ctx, session, onStatus)
	return session
}

func (p *Poller) run(ctx context.Context, s *PollSession, onStatus func(Status)) {
	defer func() {
		p.mu.Lock()
		if p.sessions[s.cvID] == s {
			delete(p.sessions, s.cvID)
		}
		p.mu.Unlock()
		close(s.done)
	}()

	for {
		status, err := p.api.GetStatus(ctx, s.cvID)

		// a result that arrives after cancellation must not transition state
		if s.stopped() {
			s.finish(nil, ErrStopped)
			return
		}
		if ctx.Err() != nil {
			s.finish(nil, ctx.Err())
			return
		}

		if err != nil {
			// transport failure is fatal for the poll cycle; the caller
			// retries manually, distinct from a business "failed" status
			s.finish(nil, err)
			return
		}

		if onStatus != nil {
			onStatus(*status)
		}

		if TerminalStatus(status.Status) {
			if status.Status == StatusFailed {
				s.finish(status, fmt.Errorf("%w: %s", ErrProcessingFailed, status.ErrorMessage))
			} else {
				s.finish(status, nil)
			}
			return
		}

		select {
		case <-s.stopCh:
			s.finish(status, ErrStopped)
			return
		case <-ctx.Done():
			s.finish(status, ctx.Err())
			return
		case <-p.clock.After(p.interval):
		}
	}
}

// Stop cancels the session. Safe to call more than once and from any
// goroutine; pending scheduled queries are abandoned.
func (s *PollSession) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Wait blocks until the session ends and returns the last observed status
// and the session outcome. A nil error means a terminal "completed" was
// observed; ErrProcessingFailed wraps the business failure case.
func (s *PollSession) Wait() (*Status, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.err
}

// Done exposes the completion channel for select-based callers.
func (s *PollSession) Done() <-chan struct{} {
	return s.done
}

func (s *PollSession) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *PollSession) finish(status *Status, err error) {
	s.mu.Lock()
	if status != nil {
		s.last = status
	}
	s.err = err
	s.mu.Unlock()
}
