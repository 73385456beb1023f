// Package poll provides the bounded waiting primitives used against pages
// we do not control: poll a probe until it reports done or a deadline
// passes, and fixed settle delays after simulated UI actions.
//
// Every wait is bounded. Callers pick the bound; nothing here retries
// forever.
package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTimeout is returned by Until when the probe never reports done
// within the configured bound.
var ErrTimeout = errors.New("poll: timeout")

// Clock is the time source used by Until and Sleep.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Options bounds a poll loop.
type Options struct {
	// Timeout is the overall bound. Default: 5s.
	Timeout time.Duration
	// Interval is the delay between probes. Default: 50ms.
	Interval time.Duration
	// Clock overrides the time source. Default: RealClock.
	Clock Clock
}

func (o *Options) defaults() {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.Interval <= 0 {
		o.Interval = 50 * time.Millisecond
	}
	if o.Clock == nil {
		o.Clock = RealClock
	}
}

// Probe inspects the world once. done=true stops the loop with v; a
// non-nil error stops it immediately with that error.
type Probe[T any] func(ctx context.Context) (v T, done bool, err error)

// Until runs probe immediately and then every Interval until it reports
// done, fails, the context ends, or Timeout elapses. The timeout error
// wraps ErrTimeout.
func Until[T any](ctx context.Context, opts Options, probe Probe[T]) (T, error) {
	opts.defaults()
	var zero T

	start := opts.Clock.Now()
	for {
		v, done, err := probe(ctx)
		if err != nil {
			return zero, err
		}
		if done {
			return v, nil
		}

		if opts.Clock.Now().Sub(start) >= opts.Timeout {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, opts.Timeout)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-opts.Clock.After(opts.Interval):
		}
	}
}

// Sleep waits d on clock, returning early with the context error.
func Sleep(ctx context.Context, clock Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if clock == nil {
		clock = RealClock
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(d):
		return nil
	}
}

// StepClock is a deterministic Clock for tests. Every call to After
// advances the clock by the requested duration and returns a channel that
// has already fired, so loops run without real waiting.
type StepClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewStepClock returns a StepClock starting at start.
func NewStepClock(start time.Time) *StepClock {
	return &StepClock{now: start}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *StepClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Sleeps returns every duration passed to After, in order.
func (c *StepClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
