package pageagent

import (
	"context"
	"errors"
	"strings"
)

// Tab labels the agent looks for in the host page's tab strip.
const (
	LabelLyrics  = "Lyrics"
	LabelRelated = "Related"
	LabelUpNext  = "Up next"
)

var (
	// ErrLyricsTabNotFound means the tab strip has no "Lyrics" tab.
	ErrLyricsTabNotFound = errors.New("pageagent: lyrics tab not found")
	// ErrNoTabContent means the target tab has no label element to hold
	// the toggle yet.
	ErrNoTabContent = errors.New("pageagent: tab content element not found")
)

// Tab is one entry of the host page's tab strip.
type Tab struct {
	Index    int
	Label    string // whitespace-normalised label text, toggle excluded
	Selected bool   // aria-selected="true"
}

// Lyrics is the state of the host page's lyrics node.
type Lyrics struct {
	Found bool
	HTML  string
	Text  string
	// EmptyAttr is true when the node carries the is-empty attribute.
	EmptyAttr bool
	// Rendered is true when the node currently holds a panel written by
	// the agent rather than the page's own lyrics.
	Rendered bool
}

// Loaded reports whether the node holds displayable lyrics.
func (l Lyrics) Loaded() bool {
	return l.Found && !l.EmptyAttr && strings.TrimSpace(l.Text) != ""
}

// EventType identifies a page event delivered to the agent.
type EventType string

const (
	EventToggleClick  EventType = "toggle_click"
	EventPopState     EventType = "popstate"
	EventBeforeUnload EventType = "beforeunload"
	// EventTabSelected fires when a tab gains aria-selected="true".
	EventTabSelected EventType = "tab_selected"
	// EventTabsAdded fires when tab strip elements are added to the DOM.
	EventTabsAdded EventType = "tabs_added"
)

// Event is a page event. Label is set for EventTabSelected.
type Event struct {
	Type  EventType `json:"type"`
	Label string    `json:"label,omitempty"`
}

// Host is the music page as seen by the agent. Every method reads or
// writes the live DOM; none of them wait for the page to change.
type Host interface {
	URL(ctx context.Context) (string, error)
	Tabs(ctx context.Context) ([]Tab, error)
	ClickTab(ctx context.Context, index int) error
	Lyrics(ctx context.Context) (Lyrics, error)
	SetLyricsHTML(ctx context.Context, html string) error
	// ShelfPageType returns the page-type attribute of the lyrics shelf.
	ShelfPageType(ctx context.Context) (string, error)

	ToggleExists(ctx context.Context) (bool, error)
	// InjectToggle appends the toggle, unpressed, to the label element of
	// the tab at tabIndex. Returns ErrNoTabContent when there is none.
	InjectToggle(ctx context.Context, tabIndex int, label string) error
	SetTogglePressed(ctx context.Context, pressed bool) error
	RemoveToggle(ctx context.Context) error

	// ShowNotice places html in the first lyrics container that exists,
	// replacing any previous notice. Reports false when none exists.
	ShowNotice(ctx context.Context, html string) (bool, error)

	// Events delivers page events until the page goes away.
	Events() <-chan Event
}

// normalizeLabel collapses whitespace runs.
func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findTab(tabs []Tab, contains string) (Tab, bool) {
	for _, t := range tabs {
		if strings.Contains(t.Label, contains) {
			return t, true
		}
	}
	return Tab{}, false
}

func selectedTab(tabs []Tab) (Tab, bool) {
	for _, t := range tabs {
		if t.Selected {
			return t, true
		}
	}
	return Tab{}, false
}
