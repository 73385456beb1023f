package pageagent

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/lyricsroman/idgen"
	"github.com/hazyhaar/lyricsroman/poll"
)

// fakeHost is an in-memory music page.
type fakeHost struct {
	mu       sync.Mutex
	url      string
	labels   []string
	selected int
	lyrics   Lyrics
	pageType string

	// emptyUntilSwitch keeps the lyrics node empty until a non-Lyrics tab
	// and then the Lyrics tab are clicked; it then holds loaded.
	emptyUntilSwitch bool
	sawOther         bool
	loaded           Lyrics

	// ignoreClick drops the next click on this label.
	ignoreClick string
	// onClick runs once, outside the lock, after the next tab click.
	onClick func()

	toggle    bool
	toggleTab int
	pressed   bool
	injects   int
	removes   int
	clicks    []string
	writes    []string
	notices   []string
	events    chan Event
}

func newFakeHost(text string) *fakeHost {
	return &fakeHost{
		url:      "https://music.youtube.com/watch?v=song1",
		labels:   []string{"Up next", "Lyrics", "Related"},
		selected: 1,
		lyrics:   Lyrics{Found: true, HTML: "<span>" + text + "</span>", Text: text},
		pageType: "MUSIC_PAGE_TYPE_TRACK_LYRICS",
		events:   make(chan Event, 8),
	}
}

func (h *fakeHost) URL(context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url, nil
}

func (h *fakeHost) Tabs(context.Context) ([]Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tabs := make([]Tab, len(h.labels))
	for i, l := range h.labels {
		tabs[i] = Tab{Index: i, Label: l, Selected: i == h.selected}
	}
	return tabs, nil
}

func (h *fakeHost) ClickTab(_ context.Context, i int) error {
	h.mu.Lock()
	hook := h.onClick
	h.onClick = nil
	h.mu.Unlock()
	if hook != nil {
		defer hook()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	label := h.labels[i]
	h.clicks = append(h.clicks, label)
	if h.ignoreClick == label {
		h.ignoreClick = ""
		return nil
	}
	h.selected = i
	if h.emptyUntilSwitch {
		if label != LabelLyrics {
			h.sawOther = true
		} else if h.sawOther {
			h.lyrics = h.loaded
			h.emptyUntilSwitch = false
		}
	}
	return nil
}

func (h *fakeHost) Lyrics(context.Context) (Lyrics, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lyrics, nil
}

func (h *fakeHost) SetLyricsHTML(_ context.Context, html string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes = append(h.writes, html)
	h.lyrics.HTML = html
	h.lyrics.Rendered = strings.Contains(html, "lr-panel")
	return nil
}

func (h *fakeHost) ShelfPageType(context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pageType, nil
}

func (h *fakeHost) ToggleExists(context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.toggle, nil
}

func (h *fakeHost) InjectToggle(_ context.Context, tab int, label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toggle, h.toggleTab, h.pressed = true, tab, false
	h.injects++
	return nil
}

func (h *fakeHost) SetTogglePressed(_ context.Context, pressed bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pressed = pressed
	return nil
}

func (h *fakeHost) RemoveToggle(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toggle = false
	h.removes++
	return nil
}

func (h *fakeHost) ShowNotice(_ context.Context, html string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = append(h.notices, html)
	return true, nil
}

func (h *fakeHost) Events() <-chan Event { return h.events }

func (h *fakeHost) lastWrite() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.writes) == 0 {
		return ""
	}
	return h.writes[len(h.writes)-1]
}

func (h *fakeHost) clicked() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.clicks...)
}

// fakeRomanizer records requests and returns a fixed answer.
type fakeRomanizer struct {
	mu     sync.Mutex
	calls  []string
	result string
	err    error
	hook   func()
}

func (r *fakeRomanizer) Romanize(_ context.Context, text string) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, text)
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return r.result, r.err
}

func (r *fakeRomanizer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// outcomes collects notifier output.
type outcomes struct {
	mu   sync.Mutex
	list []Outcome
}

func (o *outcomes) Notify(_ context.Context, out Outcome) {
	o.mu.Lock()
	o.list = append(o.list, out)
	o.mu.Unlock()
}

func (o *outcomes) types() []OutcomeType {
	o.mu.Lock()
	defer o.mu.Unlock()
	var ts []OutcomeType
	for _, x := range o.list {
		ts = append(ts, x.Type)
	}
	return ts
}

func newTestAgent(t *testing.T, h Host, r *fakeRomanizer, mut ...func(*Config)) (*Agent, *poll.StepClock, *outcomes) {
	t.Helper()
	clk := poll.NewStepClock(time.Unix(0, 0))
	out := &outcomes{}
	cfg := Config{
		Romanizer: r,
		Clock:     clk,
		Notifier:  out,
		NewID:     idgen.Sequence("ses"),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, m := range mut {
		m(&cfg)
	}
	return New(h, cfg), clk, out
}

func sameDurations(a, b []time.Duration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
