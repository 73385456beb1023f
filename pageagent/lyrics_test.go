package pageagent

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEnsureLyricsTabActive(t *testing.T) {
	ctx := context.Background()
	h := newFakeHost(mixed)
	h.selected = 0
	a, clk, _ := newTestAgent(t, h, &fakeRomanizer{})

	tab, err := a.EnsureLyricsTabActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tab.Label != "Lyrics" || h.selected != 1 {
		t.Fatalf("tab=%+v selected=%d", tab, h.selected)
	}
	if got := clk.Sleeps(); !sameDurations(got, []time.Duration{500 * time.Millisecond}) {
		t.Fatalf("sleeps = %v", got)
	}

	// Already selected: no click.
	if _, err := a.EnsureLyricsTabActive(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(h.clicked()); n != 1 {
		t.Fatalf("clicks = %d, want 1", n)
	}
}

func TestEnsureLyricsTabActive_NotFound(t *testing.T) {
	h := newFakeHost(mixed)
	h.labels = []string{"Up next", "Related"}
	a, _, _ := newTestAgent(t, h, &fakeRomanizer{})
	if _, err := a.EnsureLyricsTabActive(context.Background()); !errors.Is(err, ErrLyricsTabNotFound) {
		t.Fatalf("err = %v, want ErrLyricsTabNotFound", err)
	}
}

func TestFindAndStoreLyrics_Workaround(t *testing.T) {
	h := newFakeHost("")
	h.selected = 2
	h.lyrics = Lyrics{Found: true, EmptyAttr: true}
	h.emptyUntilSwitch = true
	h.loaded = Lyrics{Found: true, HTML: "<span>사랑해</span>", Text: "사랑해"}
	a, clk, _ := newTestAgent(t, h, &fakeRomanizer{})

	ok, err := a.FindAndStoreLyrics(context.Background())
	if err != nil || !ok {
		t.Fatalf("FindAndStoreLyrics = (%v, %v), want (true, nil)", ok, err)
	}
	if got, want := h.clicked(), []string{"Lyrics", "Related", "Lyrics"}; !sameStrings(got, want) {
		t.Fatalf("clicks = %v, want %v", got, want)
	}
	want := []time.Duration{500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond, 1500 * time.Millisecond}
	if got := clk.Sleeps(); !sameDurations(got, want) {
		t.Fatalf("sleeps = %v, want %v", got, want)
	}
	if s := a.Session().Snapshot; s == nil || s.OriginalText != "사랑해" {
		t.Fatalf("snapshot = %+v", s)
	}
}

func TestReloadWithTabSwitch_PicksLastOtherTab(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{"full strip", []string{"Up next", "Lyrics", "Related"}, []string{"Related", "Lyrics"}},
		{"no related", []string{"Up next", "Lyrics"}, []string{"Up next", "Lyrics"}},
		{"related first", []string{"Related", "Lyrics", "Up next"}, []string{"Up next", "Lyrics"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFakeHost("")
			h.labels = tt.labels
			a, _, _ := newTestAgent(t, h, &fakeRomanizer{})

			ok, err := a.reloadWithTabSwitch(context.Background())
			if err != nil || !ok {
				t.Fatalf("reloadWithTabSwitch = (%v, %v), want (true, nil)", ok, err)
			}
			if got := h.clicked(); !sameStrings(got, tt.want) {
				t.Fatalf("clicks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindAndStoreLyrics_StillEmpty(t *testing.T) {
	h := newFakeHost("")
	h.lyrics = Lyrics{Found: true, EmptyAttr: true}
	a, _, _ := newTestAgent(t, h, &fakeRomanizer{})

	ok, err := a.FindAndStoreLyrics(context.Background())
	if err != nil || ok {
		t.Fatalf("FindAndStoreLyrics = (%v, %v), want (false, nil)", ok, err)
	}
	if a.Session().Snapshot != nil {
		t.Fatal("snapshot taken of empty lyrics")
	}
}

func TestFindAndStoreLyrics_SnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newFakeHost("первая песня")
	a, _, _ := newTestAgent(t, h, &fakeRomanizer{})

	if ok, _ := a.FindAndStoreLyrics(ctx); !ok {
		t.Fatal("lyrics not found")
	}
	first := a.Session().Snapshot

	// Our own panel showing: snapshot kept.
	h.lyrics = Lyrics{Found: true, HTML: `<div class="lr-panel">x</div>`, Text: "x", Rendered: true}
	a.FindAndStoreLyrics(ctx)
	if a.Session().Snapshot != first {
		t.Fatal("snapshot replaced by our own panel")
	}

	// Page shows different lyrics: new song, snapshot replaced.
	h.lyrics = Lyrics{Found: true, HTML: "<span>вторая</span>", Text: "вторая"}
	a.FindAndStoreLyrics(ctx)
	if s := a.Session().Snapshot; s == first || s.OriginalText != "вторая" {
		t.Fatalf("snapshot = %+v, want replaced", s)
	}
}

func TestUniversalTabSwitch_EmergencyRefresh(t *testing.T) {
	h := newFakeHost(mixed)
	h.pageType = "MUSIC_PAGE_TYPE_TRACK_RELATED"
	a, clk, _ := newTestAgent(t, h, &fakeRomanizer{})

	ok, err := a.UniversalTabSwitch(context.Background(), "Lyrics")
	if err != nil || !ok {
		t.Fatalf("UniversalTabSwitch = (%v, %v)", ok, err)
	}
	if got, want := h.clicked(), []string{"Related", "Lyrics", "Related", "Lyrics"}; !sameStrings(got, want) {
		t.Fatalf("clicks = %v, want %v", got, want)
	}
	want := []time.Duration{
		500 * time.Millisecond, time.Second, 500 * time.Millisecond, 2 * time.Second,
		time.Second, 1500 * time.Millisecond,
	}
	if got := clk.Sleeps(); !sameDurations(got, want) {
		t.Fatalf("sleeps = %v, want %v", got, want)
	}
}

func TestUniversalTabSwitch_CorrectsWrongTab(t *testing.T) {
	h := newFakeHost(mixed)
	a, clk, _ := newTestAgent(t, h, &fakeRomanizer{})

	// The first click back to Lyrics is swallowed by the page.
	h.ignoreClick = "Lyrics"

	ok, err := a.UniversalTabSwitch(context.Background(), "Lyrics")
	if err != nil || !ok {
		t.Fatalf("UniversalTabSwitch = (%v, %v)", ok, err)
	}
	if got, want := h.clicked(), []string{"Related", "Lyrics", "Lyrics"}; !sameStrings(got, want) {
		t.Fatalf("clicks = %v, want %v", got, want)
	}
	if h.selected != 1 {
		t.Fatalf("selected = %d, want Lyrics", h.selected)
	}
	found := false
	for _, d := range clk.Sleeps() {
		if d == 300*time.Millisecond {
			found = true
		}
	}
	if !found {
		t.Fatal("no correction delay")
	}
}

func TestUniversalTabSwitch_FromRelated(t *testing.T) {
	h := newFakeHost(mixed)
	h.selected = 2
	a, _, _ := newTestAgent(t, h, &fakeRomanizer{})
	ok, err := a.UniversalTabSwitch(context.Background(), "Related")
	if err != nil || !ok {
		t.Fatalf("UniversalTabSwitch = (%v, %v)", ok, err)
	}
	if got, want := h.clicked(), []string{"Lyrics", "Related"}; !sameStrings(got, want) {
		t.Fatalf("clicks = %v, want %v", got, want)
	}
}

func TestUniversalTabSwitch_SkipsOtherTabs(t *testing.T) {
	h := newFakeHost(mixed)
	h.selected = 0
	a, _, _ := newTestAgent(t, h, &fakeRomanizer{})
	ok, err := a.UniversalTabSwitch(context.Background(), "Up next")
	if err != nil || ok {
		t.Fatalf("UniversalTabSwitch = (%v, %v), want (false, nil)", ok, err)
	}
	if len(h.clicked()) != 0 {
		t.Fatalf("clicked %v", h.clicked())
	}
}
