package render

import (
	"strings"
	"testing"
)

func TestRomanized(t *testing.T) {
	got, err := Romanized("がんばって\nみんな", "Ganbatte\nMinna", StatusFresh)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{StatusFresh, "Ganbatte", "Minna", "Original lyrics:", "がんばって", `class="lr-original"`} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %s", want, got)
		}
	}
	if strings.Index(got, "Ganbatte") > strings.Index(got, "がんばって") {
		t.Error("romanized lyrics should come before the original")
	}
}

func TestLyricsAreEscaped(t *testing.T) {
	got, err := Romanized(`<script>alert(1)</script>`, `<img src=x onerror=alert(1)>`, StatusCached)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<script") || strings.Contains(got, "<img") {
		t.Fatalf("markup leaked: %s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Fatalf("expected escaped text, got %s", got)
	}
}

func TestLoading(t *testing.T) {
	got, err := Loading("사랑해")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, StatusLoading) || !strings.Contains(got, "lr-dim") || !strings.Contains(got, "사랑해") {
		t.Fatalf("unexpected loading panel: %s", got)
	}
}

func TestError(t *testing.T) {
	got, err := Error("сердце", "TabLoadTimeout: tab loading timeout")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Romanization failed", "Error: TabLoadTimeout: tab loading timeout", "сердце"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %s", want, got)
		}
	}
}

func TestNotice(t *testing.T) {
	got, err := Notice()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `id="`+NoticeID+`"`) {
		t.Fatalf("notice id stripped: %s", got)
	}
	if !strings.Contains(got, "No lyrics available") {
		t.Fatalf("notice text missing: %s", got)
	}
}

func TestPolicy_DropsForeignMarkup(t *testing.T) {
	got := policy.Sanitize(`<div class="evil" onclick="x()">hi</div><iframe src="x"></iframe>`)
	if strings.Contains(got, "onclick") || strings.Contains(got, "iframe") || strings.Contains(got, "evil") {
		t.Fatalf("sanitize kept foreign markup: %s", got)
	}
	if !strings.Contains(got, "hi") {
		t.Fatalf("text dropped: %s", got)
	}
}

func TestMarkdown(t *testing.T) {
	panel, err := Romanized("がんばって", "Ganbatte", StatusFresh)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Markdown(panel)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<div") {
		t.Fatalf("markdown still has html: %s", got)
	}
	for _, want := range []string{"Pronunciation lyrics", "Ganbatte", "がんばって"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %s", want, got)
		}
	}
}
