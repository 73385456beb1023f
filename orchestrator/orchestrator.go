// Package orchestrator runs the automation side of a romanization: it opens
// a throwaway tab on the translation service, waits for it to load, runs the
// extraction routine inside it and tears it down again, handing focus back
// to whichever tab the user was on.
//
// Requests are neither deduplicated nor queued. Two concurrent calls open
// two tabs. Nothing is retried here; callers decide.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/lyricsroman/extraction"
	"github.com/hazyhaar/lyricsroman/idgen"
	"github.com/hazyhaar/lyricsroman/romanize"
)

// DefaultTranslateURL is the translation page opened for every request.
const DefaultTranslateURL = "https://translate.google.com/?sl=auto&tl=en&op=translate"

// TabID identifies a browser tab for the Driver.
type TabID string

// Driver is the browser tab API the orchestrator needs. Implementations
// must honour context cancellation on every call.
type Driver interface {
	// ActiveTab returns the tab currently focused by the user.
	ActiveTab(ctx context.Context) (TabID, error)
	// OpenTab opens a new tab at url.
	OpenTab(ctx context.Context, url string) (TabID, error)
	// Activate brings a tab to the foreground.
	Activate(ctx context.Context, id TabID) error
	// WaitLoad blocks until the tab reports load complete.
	WaitLoad(ctx context.Context, id TabID) error
	// Document exposes the tab's DOM to the extraction routine.
	Document(ctx context.Context, id TabID) (extraction.Document, error)
	// CloseTab closes a tab.
	CloseTab(ctx context.Context, id TabID) error
}

// Routine is the extraction step run inside the automation tab.
// *extraction.Extractor implements it.
type Routine interface {
	Run(ctx context.Context, doc extraction.Document, text string) (string, error)
}

// Config configures an Orchestrator.
type Config struct {
	// TranslateURL overrides DefaultTranslateURL.
	TranslateURL string
	// LoadTimeout bounds the wait for the automation tab. Default: 10s.
	LoadTimeout time.Duration
	// ReleaseTimeout bounds focus restore + tab close. Default: 5s.
	ReleaseTimeout time.Duration
	// Routine defaults to extraction.New with default selectors.
	Routine Routine
	// NewID generates request IDs for logs. Default: idgen.Default.
	NewID  idgen.Generator
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.TranslateURL == "" {
		c.TranslateURL = DefaultTranslateURL
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 10 * time.Second
	}
	if c.ReleaseTimeout <= 0 {
		c.ReleaseTimeout = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Routine == nil {
		c.Routine = extraction.New(extraction.Config{Logger: c.Logger})
	}
	if c.NewID == nil {
		c.NewID = idgen.Default
	}
}

// Orchestrator romanizes text through an automation tab.
type Orchestrator struct {
	driver Driver
	cfg    Config
	logger *slog.Logger
}

// New creates an Orchestrator over driver.
func New(driver Driver, cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{driver: driver, cfg: cfg, logger: cfg.Logger}
}

// Romanize opens the automation tab, runs the extraction routine on text
// and returns the romanized string. The automation tab is closed and focus
// restored on every exit path.
func (o *Orchestrator) Romanize(ctx context.Context, text string) (string, error) {
	log := o.logger.With("request_id", o.cfg.NewID())
	log.Info("orchestrator: romanize", "chars", len([]rune(text)))

	l, err := o.acquire(ctx, log)
	if err != nil {
		return "", err
	}
	defer l.release(ctx, o.cfg.ReleaseTimeout)

	loadCtx, cancel := context.WithTimeout(ctx, o.cfg.LoadTimeout)
	err = o.driver.WaitLoad(loadCtx, l.tab)
	timedOut := errors.Is(loadCtx.Err(), context.DeadlineExceeded)
	cancel()
	if err != nil {
		if timedOut && ctx.Err() == nil {
			return "", romanize.Errorf(romanize.TabLoadTimeout, "orchestrator",
				"tab loading timeout after %s", o.cfg.LoadTimeout)
		}
		return "", romanize.Wrap(romanize.ExtractionFailed, "orchestrator: wait load", err)
	}
	log.Debug("orchestrator: tab loaded", "tab", l.tab)

	doc, err := o.driver.Document(ctx, l.tab)
	if err != nil {
		return "", romanize.Wrap(romanize.ExtractionFailed, "orchestrator: attach", err)
	}

	out, err := o.runRoutine(ctx, doc, text)
	if err != nil {
		log.Warn("orchestrator: extraction failed", "error", err)
		return "", romanize.Wrap(romanize.ExtractionFailed, "orchestrator: injected script", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", romanize.Errorf(romanize.ExtractionFailed, "orchestrator",
			"failed to get romanized text - no valid result")
	}

	log.Info("orchestrator: romanized", "preview", preview(out, 100))
	return out, nil
}

// runRoutine shields the orchestrator from a panicking routine.
func (o *Orchestrator) runRoutine(ctx context.Context, doc extraction.Document, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("routine panic: %v", r)
		}
	}()
	return o.cfg.Routine.Run(ctx, doc, text)
}

// Handle is the message boundary: it answers a romanizeText request and
// folds every failure into the response.
func (o *Orchestrator) Handle(ctx context.Context, req romanize.Request) (resp romanize.Response) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestrator: handler panic", "panic", r)
			resp = romanize.Failed(fmt.Errorf("handler panic: %v", r))
		}
	}()

	if req.Action != romanize.ActionRomanizeText {
		return romanize.Failed(romanize.Errorf(romanize.MessageChannelError, "orchestrator",
			"unknown action %q", req.Action))
	}
	if strings.TrimSpace(req.Text) == "" {
		return romanize.Failed(romanize.Errorf(romanize.ExtractionFailed, "orchestrator", "empty text"))
	}

	out, err := o.Romanize(ctx, req.Text)
	if err != nil {
		return romanize.Failed(err)
	}
	return romanize.Succeeded(out)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
