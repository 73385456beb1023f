// Package watch polls a string token (a page URL) and runs an action when
// it changes. A Poke forces an immediate check, so history events and the
// periodic poll funnel into one change detector and a change fires once.
//
// Typical usage:
//
//	w := watch.New(host.URL, watch.Options{Interval: time.Second})
//	go w.OnChange(ctx, func(ctx context.Context, old, cur string) error { ... })
//	w.Poke() // on popstate
package watch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Detector reads the current token. Two calls returning different values
// mean "something changed".
type Detector func(ctx context.Context) (string, error)

// Action handles a change from old to cur.
type Action func(ctx context.Context, old, cur string) error

// Options tunes the watcher behaviour.
type Options struct {
	// Interval is the polling frequency. Default: 1s.
	Interval time.Duration
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher polls a Detector. It is safe for concurrent use.
type Watcher struct {
	detect Detector
	opts   Options
	poke   chan struct{}

	mu      sync.Mutex
	current string
	seeded  bool

	checks  atomic.Int64
	changes atomic.Int64
	errors  atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Checks          int64 `json:"checks"`
	ChangesDetected int64 `json:"changes_detected"`
	Errors          int64 `json:"errors"`
}

// New creates a Watcher. Call OnChange to start the loop.
func New(detect Detector, opts Options) *Watcher {
	opts.defaults()
	return &Watcher{detect: detect, opts: opts, poke: make(chan struct{}, 1)}
}

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Checks:          w.checks.Load(),
		ChangesDetected: w.changes.Load(),
		Errors:          w.errors.Load(),
	}
}

// Current returns the last token the action accepted.
func (w *Watcher) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Seed sets the starting token without firing the action.
func (w *Watcher) Seed(v string) {
	w.mu.Lock()
	w.current, w.seeded = v, true
	w.mu.Unlock()
}

// Poke requests an immediate check. It never blocks.
func (w *Watcher) Poke() {
	select {
	case w.poke <- struct{}{}:
	default:
	}
}

// OnChange blocks until ctx is cancelled. If action returns an error the
// token is not advanced and the change fires again on the next check.
func (w *Watcher) OnChange(ctx context.Context, action Action) {
	log := w.opts.Logger

	w.mu.Lock()
	seeded := w.seeded
	w.mu.Unlock()
	if !seeded {
		if v, err := w.detect(ctx); err != nil {
			log.Warn("watch: initial check failed", "error", err)
		} else {
			w.Seed(v)
		}
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	log.Debug("watch: started", "interval", w.opts.Interval)

	check := func() {
		w.checks.Add(1)
		cur, err := w.detect(ctx)
		if err != nil {
			w.errors.Add(1)
			log.Debug("watch: check failed", "error", err)
			return
		}
		if cur == w.Current() {
			return
		}
		w.changes.Add(1)
		w.fire(ctx, action, cur)
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug("watch: stopped")
			return
		case <-ticker.C:
			check()
		case <-w.poke:
			check()
		}
	}
}

func (w *Watcher) fire(ctx context.Context, action Action, cur string) {
	old := w.Current()
	w.opts.Logger.Info("watch: change", "old", old, "new", cur)
	if err := action(ctx, old, cur); err != nil {
		w.errors.Add(1)
		w.opts.Logger.Error("watch: action failed", "error", err, "new", cur)
		return
	}
	w.mu.Lock()
	w.current = cur
	w.mu.Unlock()
}
