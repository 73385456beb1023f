// Package pageagent drives the lyrics romanization feature inside the
// music page: it keeps a toggle in the tab strip, snapshots the page's
// lyrics, swaps in romanized lyrics on demand and puts everything back on
// navigation or unload.
//
// Page events arrive on Host.Events and are dispatched by Run. Long flows
// (tab-switch workarounds, romanization round trips) run on their own
// goroutines and re-check that their Session is still current before
// touching the DOM, so a flow started for one song never writes into the
// next one.
package pageagent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/lyricsroman/idgen"
	"github.com/hazyhaar/lyricsroman/poll"
	"github.com/hazyhaar/lyricsroman/romanize"
	"github.com/hazyhaar/lyricsroman/watch"
)

// Delays are the settle and dwell times used while driving the page.
type Delays struct {
	TabSettle        time.Duration // after a tab click
	WorkaroundReload time.Duration // after the reload workaround returns to Lyrics
	SwitchDwell      time.Duration // time spent on the other tab
	SwitchCorrection time.Duration // after re-clicking the wrong tab
	ContentSettle    time.Duration // after switching back, before checks
	EmergencyDwell   time.Duration
	EmergencyReload  time.Duration
	NavigationSettle time.Duration // before the post-navigation switch
	FallbackInject   time.Duration // inject delay when the switch failed
	DeferredInject   time.Duration // inject delay when not on Lyrics
	DeferredSwitch   time.Duration // before the deferred switch on Lyrics entry
	TabsAddedInject  time.Duration // after tab strip elements appear
	InjectRetry      time.Duration // when no tabs exist yet
}

// DefaultDelays match the host page's rendering behaviour.
func DefaultDelays() Delays {
	return Delays{
		TabSettle:        500 * time.Millisecond,
		WorkaroundReload: 1500 * time.Millisecond,
		SwitchDwell:      1000 * time.Millisecond,
		SwitchCorrection: 300 * time.Millisecond,
		ContentSettle:    2000 * time.Millisecond,
		EmergencyDwell:   1000 * time.Millisecond,
		EmergencyReload:  1500 * time.Millisecond,
		NavigationSettle: 300 * time.Millisecond,
		FallbackInject:   2 * time.Second,
		DeferredInject:   5 * time.Second,
		DeferredSwitch:   500 * time.Millisecond,
		TabsAddedInject:  500 * time.Millisecond,
		InjectRetry:      time.Second,
	}
}

// Config configures an Agent.
type Config struct {
	// Romanizer is the channel to the orchestrator. Required.
	Romanizer romanize.Romanizer
	// ToggleLabel is the toggle's text. Default: "Pronunciation".
	ToggleLabel string
	// ToggleOnlyWithNonLatin hides the toggle for songs whose lyrics are
	// already Latin. Default false: always show it.
	ToggleOnlyWithNonLatin bool
	// EagerTabSwitch disables the deferred tab switch: after navigating
	// away from the Lyrics tab nothing is scheduled for Lyrics entry.
	EagerTabSwitch bool
	// RomanizeTimeout bounds one round trip. Default: 30s.
	RomanizeTimeout time.Duration
	// MaxInjectRetries bounds toggle injection retries. Default: 30.
	MaxInjectRetries int
	// URLPollInterval is the navigation poll period. Default: 1s.
	URLPollInterval time.Duration
	Delays          Delays
	Clock           poll.Clock
	Notifier        Notifier
	NewID           idgen.Generator
	Logger          *slog.Logger
}

func (c *Config) defaults() {
	if c.ToggleLabel == "" {
		c.ToggleLabel = "Pronunciation"
	}
	if c.RomanizeTimeout <= 0 {
		c.RomanizeTimeout = 30 * time.Second
	}
	if c.MaxInjectRetries <= 0 {
		c.MaxInjectRetries = 30
	}
	if c.URLPollInterval <= 0 {
		c.URLPollInterval = time.Second
	}
	if c.Delays == (Delays{}) {
		c.Delays = DefaultDelays()
	}
	if c.Clock == nil {
		c.Clock = poll.RealClock
	}
	if c.Notifier == nil {
		c.Notifier = nopNotifier{}
	}
	if c.NewID == nil {
		c.NewID = idgen.Prefixed("ses_", idgen.Default)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Agent is the page agent for one music page tab.
type Agent struct {
	host   Host
	cfg    Config
	logger *slog.Logger
	url    *watch.Watcher

	mu   sync.Mutex
	sess *Session

	wg sync.WaitGroup
}

// New creates an Agent over host. The first Session is created by Run.
func New(host Host, cfg Config) *Agent {
	cfg.defaults()
	a := &Agent{
		host:   host,
		cfg:    cfg,
		logger: cfg.Logger,
		sess:   newSession(cfg.NewID(), ""),
	}
	a.url = watch.New(host.URL, watch.Options{Interval: cfg.URLPollInterval, Logger: cfg.Logger})
	return a
}

// Session returns the current session.
func (a *Agent) Session() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess
}

func (a *Agent) isCurrent(s *Session) bool {
	return a.Session() == s
}

// Run starts the agent and blocks until ctx ends or the page's event
// stream closes. On exit it restores the original lyrics.
func (a *Agent) Run(ctx context.Context) error {
	url, err := a.host.URL(ctx)
	if err != nil {
		a.logger.Warn("pageagent: read url", "error", err)
	}
	a.mu.Lock()
	a.sess = newSession(a.cfg.NewID(), url)
	a.mu.Unlock()
	a.url.Seed(url)
	a.logger.Info("pageagent: started", "url", url)

	runCtx, cancel := context.WithCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.url.OnChange(runCtx, a.HandleNavigation)
	}()
	a.spawn(runCtx, func(ctx context.Context) { a.injectWithRetry(ctx) })

	events := a.host.Events()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			a.dispatch(runCtx, ev)
		}
	}

	cancel()
	a.wg.Wait()

	rctx, rcancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer rcancel()
	a.Restore(rctx)
	st := a.url.Stats()
	a.logger.Info("pageagent: stopped",
		"url_checks", st.Checks, "navigations", st.ChangesDetected, "url_errors", st.Errors)
	return nil
}

func (a *Agent) dispatch(ctx context.Context, ev Event) {
	a.logger.Debug("pageagent: event", "type", ev.Type, "label", ev.Label)
	switch ev.Type {
	case EventToggleClick:
		a.spawn(ctx, func(ctx context.Context) { a.OnToggleClick(ctx) })
	case EventPopState:
		a.url.Poke()
	case EventBeforeUnload:
		a.Restore(ctx)
	case EventTabSelected:
		a.handleTabSelected(ctx, ev.Label)
	case EventTabsAdded:
		a.after(ctx, a.cfg.Delays.TabsAddedInject, func(ctx context.Context) { a.injectWithRetry(ctx) })
	default:
		a.logger.Warn("pageagent: unknown event", "type", ev.Type)
	}
}

// spawn runs fn on a tracked goroutine.
func (a *Agent) spawn(ctx context.Context, fn func(ctx context.Context)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(ctx)
	}()
}

// after runs fn on a tracked goroutine once d has elapsed.
func (a *Agent) after(ctx context.Context, d time.Duration, fn func(ctx context.Context)) {
	a.spawn(ctx, func(ctx context.Context) {
		if poll.Sleep(ctx, a.cfg.Clock, d) != nil {
			return
		}
		fn(ctx)
	})
}

func (a *Agent) sleep(ctx context.Context, d time.Duration) error {
	return poll.Sleep(ctx, a.cfg.Clock, d)
}

func (a *Agent) notify(ctx context.Context, s *Session, t OutcomeType, reason, panel string) {
	a.cfg.Notifier.Notify(ctx, Outcome{Type: t, SessionID: s.ID, URL: s.URL, Reason: reason, Panel: panel})
}

// Restore puts the snapshot back into the lyrics node when the node holds
// one of our panels. It reports whether anything was written.
func (a *Agent) Restore(ctx context.Context) bool {
	a.mu.Lock()
	snap := a.sess.Snapshot
	a.mu.Unlock()
	if snap == nil {
		return false
	}
	if lyr, err := a.host.Lyrics(ctx); err == nil && lyr.Found && !lyr.Rendered {
		return false
	}
	if err := a.host.SetLyricsHTML(ctx, snap.OriginalHTML); err != nil {
		a.logger.Warn("pageagent: restore lyrics", "error", err)
		return false
	}
	a.logger.Debug("pageagent: lyrics restored")
	return true
}
