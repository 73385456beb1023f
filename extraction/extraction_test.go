package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/lyricsroman/poll"
	"github.com/hazyhaar/lyricsroman/romanize"
)

// fakeDoc is a scripted translation page. Selectors listed in present
// exist from the start; result selectors appear once input was set.
type fakeDoc struct {
	present     map[string]bool
	appearAfter map[string]bool // exist only after SetInput
	texts       map[string]string
	html        string

	inputSel string
	input    string
	probes   int
}

func (d *fakeDoc) Exists(_ context.Context, sel string) (bool, error) {
	d.probes++
	if d.present[sel] {
		return true, nil
	}
	return d.inputSel != "" && d.appearAfter[sel], nil
}

func (d *fakeDoc) SetInput(_ context.Context, sel, text string) error {
	d.inputSel = sel
	d.input = text
	return nil
}

func (d *fakeDoc) Text(_ context.Context, sel string) (string, error) {
	return d.texts[sel], nil
}

func (d *fakeDoc) HTML(context.Context) (string, error) { return d.html, nil }

func newTestExtractor(clk poll.Clock) *Extractor {
	return New(Config{Clock: clk})
}

func TestRun_PrimarySelectors(t *testing.T) {
	doc := &fakeDoc{
		present:     map[string]bool{`textarea.er8xn`: true},
		appearAfter: map[string]bool{`span[jsname="toZopb"]`: true},
		texts:       map[string]string{`span[jsname="toZopb"]`: "Ganbatte"},
	}
	x := newTestExtractor(poll.NewStepClock(time.Unix(0, 0)))

	got, err := x.Run(context.Background(), doc, "がんばって")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Ganbatte" {
		t.Errorf("result: got %q, want %q", got, "Ganbatte")
	}
	if doc.inputSel != `textarea.er8xn` {
		t.Errorf("input selector: got %q", doc.inputSel)
	}
	if doc.input != "がんばって" {
		t.Errorf("input text: got %q", doc.input)
	}
}

func TestRun_InputNeverAppears(t *testing.T) {
	clk := poll.NewStepClock(time.Unix(0, 0))
	x := newTestExtractor(clk)

	_, err := x.Run(context.Background(), &fakeDoc{}, "がんばって")
	if !errors.Is(err, romanize.ElementNotFound) {
		t.Fatalf("err: got %v, want ElementNotFound", err)
	}
	if clk.Now().Sub(time.Unix(0, 0)) != 5*time.Second {
		t.Errorf("elapsed: got %s, want the 5s input bound", clk.Now().Sub(time.Unix(0, 0)))
	}
}

func TestRun_ResultNeverAppears(t *testing.T) {
	clk := poll.NewStepClock(time.Unix(0, 0))
	doc := &fakeDoc{present: map[string]bool{`textarea:first-of-type`: true}}
	x := newTestExtractor(clk)

	_, err := x.Run(context.Background(), doc, "がんばって")
	if !errors.Is(err, romanize.ElementNotFound) {
		t.Fatalf("err: got %v, want ElementNotFound", err)
	}
	if clk.Now().Sub(time.Unix(0, 0)) != 8*time.Second {
		t.Errorf("elapsed: got %s, want the 8s result bound", clk.Now().Sub(time.Unix(0, 0)))
	}
}

func TestRun_FallbackScan(t *testing.T) {
	doc := &fakeDoc{
		present:     map[string]bool{`textarea[aria-label="Source text"]`: true},
		appearAfter: map[string]bool{`.romanization span`: true},
		texts:       map[string]string{`.romanization span`: "  がんばって "},
		html: `<html><body>
			<span>Copy</span>
			<span>がんばって、みんな</span>
			<span>Ganbatte, minna!</span>
			<span>Later text that also matches</span>
		</body></html>`,
	}
	x := newTestExtractor(poll.NewStepClock(time.Unix(0, 0)))

	got, err := x.Run(context.Background(), doc, "がんばって")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Ganbatte, minna!" {
		t.Errorf("result: got %q, want the first Latin span", got)
	}
}

func TestRun_NoTranslationFound(t *testing.T) {
	doc := &fakeDoc{
		present:     map[string]bool{`textarea[aria-label="Source text"]`: true},
		appearAfter: map[string]bool{`span[lang="en-Latn"]`: true},
		texts:       map[string]string{`span[lang="en-Latn"]`: ""},
		html:        `<html><body><span>short</span><span>ずっと一緒にいたい</span></body></html>`,
	}
	x := newTestExtractor(poll.NewStepClock(time.Unix(0, 0)))

	_, err := x.Run(context.Background(), doc, "ずっと")
	if !errors.Is(err, romanize.NoTranslationFound) {
		t.Fatalf("err: got %v, want NoTranslationFound", err)
	}
}

func TestRun_CustomSelectorLists(t *testing.T) {
	doc := &fakeDoc{
		present:     map[string]bool{`#src`: true},
		appearAfter: map[string]bool{`#dst`: true},
		texts:       map[string]string{`#dst`: "privet"},
	}
	x := New(Config{
		InputSelectors:  []string{`#src`},
		ResultSelectors: []string{`#dst`},
		Clock:           poll.NewStepClock(time.Unix(0, 0)),
	})
	got, err := x.Run(context.Background(), doc, "привет")
	if err != nil {
		t.Fatal(err)
	}
	if got != "privet" {
		t.Errorf("result: got %q", got)
	}
}

func TestScanForTranslation_SkipsInputAndShortText(t *testing.T) {
	page := `<div><span>Hello</span><span>same input text</span><span><b>nested</b> latin words</span></div>`
	got, ok := ScanForTranslation(page, "same input text")
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "nested latin words" {
		t.Errorf("got %q", got)
	}
}
