// Package extraction drives the translation page: it finds the source input
// among a list of candidate selectors, types the text in, waits for the
// romanization element and reads the result back.
//
// The target page's markup changes between versions, which is why both
// selector lists are configuration and tried in order.
package extraction

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/hazyhaar/lyricsroman/poll"
	"github.com/hazyhaar/lyricsroman/romanize"
)

// Document is the view of the translation tab the routine needs.
type Document interface {
	// Exists reports whether selector matches at least one element.
	Exists(ctx context.Context, selector string) (bool, error)
	// SetInput writes text into the element matched by selector and
	// dispatches focus, input, change, keyup and paste events on it.
	SetInput(ctx context.Context, selector, text string) error
	// Text returns the text content of the first element matched by selector.
	Text(ctx context.Context, selector string) (string, error)
	// HTML returns the serialised document.
	HTML(ctx context.Context) (string, error)
}

// DefaultInputSelectors are the source textarea candidates, most specific first.
var DefaultInputSelectors = []string{
	`textarea[aria-label="Source text"]`,
	`textarea[placeholder="Enter text"]`,
	`textarea.er8xn`,
	`textarea[jsname="BJE2fc"]`,
	`textarea[data-initial-value=""]`,
	`textarea:first-of-type`,
}

// DefaultResultSelectors are the romanization element candidates.
var DefaultResultSelectors = []string{
	`span[jsname="toZopb"]`,
	`[data-romanization] span`,
	`.romanization span`,
	`.transliteration span`,
	`span[lang="en-t-i0-pinyin"]`,
	`span[lang="en-Latn"]`,
	`.source-romanization`,
}

// Config tunes the routine.
type Config struct {
	InputSelectors  []string
	ResultSelectors []string
	// InputTimeout bounds the wait for the input field. Default: 5s.
	InputTimeout time.Duration
	// ResultTimeout bounds the wait for the result element. Default: 8s.
	ResultTimeout time.Duration
	// Interval between selector probes. Default: 50ms.
	Interval time.Duration
	Clock    poll.Clock
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if len(c.InputSelectors) == 0 {
		c.InputSelectors = DefaultInputSelectors
	}
	if len(c.ResultSelectors) == 0 {
		c.ResultSelectors = DefaultResultSelectors
	}
	if c.InputTimeout <= 0 {
		c.InputTimeout = 5 * time.Second
	}
	if c.ResultTimeout <= 0 {
		c.ResultTimeout = 8 * time.Second
	}
	if c.Interval <= 0 {
		c.Interval = 50 * time.Millisecond
	}
	if c.Clock == nil {
		c.Clock = poll.RealClock
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor runs the routine with a fixed configuration.
type Extractor struct {
	cfg Config
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg}
}

// Run romanizes text on doc. Failures are typed: ElementNotFound when a
// selector list is exhausted, NoTranslationFound when nothing usable could
// be read back.
func (x *Extractor) Run(ctx context.Context, doc Document, text string) (string, error) {
	log := x.cfg.Logger

	input, err := x.waitFor(ctx, doc, x.cfg.InputSelectors, x.cfg.InputTimeout)
	if err != nil {
		return "", err
	}
	log.Debug("extraction: input found", "selector", input)

	if err := doc.SetInput(ctx, input, text); err != nil {
		return "", romanize.Wrap(romanize.ExtractionFailed, "extraction: set input", err)
	}

	result, err := x.waitFor(ctx, doc, x.cfg.ResultSelectors, x.cfg.ResultTimeout)
	if err != nil {
		return "", err
	}
	log.Debug("extraction: result found", "selector", result)

	got, err := doc.Text(ctx, result)
	if err != nil {
		return "", romanize.Wrap(romanize.ExtractionFailed, "extraction: read result", err)
	}
	if strings.TrimSpace(got) != "" && strings.TrimSpace(got) != strings.TrimSpace(text) {
		return got, nil
	}

	// The result element exists but still holds the input (or nothing):
	// fall back to the first Latin text on the page that is not the input.
	page, err := doc.HTML(ctx)
	if err != nil {
		return "", romanize.Wrap(romanize.NoTranslationFound, "extraction: read page", err)
	}
	if found, ok := ScanForTranslation(page, text); ok {
		log.Debug("extraction: fallback scan matched", "preview", preview(found, 50))
		return found, nil
	}
	return "", romanize.Errorf(romanize.NoTranslationFound, "extraction",
		"no valid romanized text found or text unchanged")
}

// waitFor polls the selectors in order until one matches.
func (x *Extractor) waitFor(ctx context.Context, doc Document, selectors []string, timeout time.Duration) (string, error) {
	sel, err := poll.Until(ctx, poll.Options{Timeout: timeout, Interval: x.cfg.Interval, Clock: x.cfg.Clock},
		func(ctx context.Context) (string, bool, error) {
			for _, s := range selectors {
				ok, err := doc.Exists(ctx, s)
				if err != nil {
					// A bad selector or a page mid-navigation: try the next one.
					continue
				}
				if ok {
					return s, true, nil
				}
			}
			return "", false, nil
		})
	if errors.Is(err, poll.ErrTimeout) {
		return "", romanize.Errorf(romanize.ElementNotFound, "extraction",
			"none of the selectors found within %s: %s", timeout, strings.Join(selectors, ", "))
	}
	if err != nil {
		return "", romanize.Wrap(romanize.ExtractionFailed, "extraction: wait", err)
	}
	return sel, nil
}

var latinLetter = regexp.MustCompile(`[a-zA-Z]`)

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
