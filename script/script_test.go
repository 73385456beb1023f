package script

import (
	"strings"
	"testing"
)

func TestExtract_LatinOnly(t *testing.T) {
	for _, in := range []string{
		"",
		"Hello world",
		"Ça va? Déjà vu, naïve façade",
		"123 !?\n\t  ",
	} {
		got, ok := Extract(in)
		if ok || got != "" {
			t.Errorf("Extract(%q): got (%q, %v), want (\"\", false)", in, got, ok)
		}
	}
}

func TestExtract_RunsInOrder(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"all japanese", "がんばって", "がんばって"},
		{"embedded", "Hello がんばって world", "がんばって"},
		{"mixed scripts", "A 사랑 B любовь C प्यार", "사랑\nлюбовь\nप्यार"},
		{"katakana and kanji join", "カラオケ大会 tonight", "カラオケ大会"},
		{"newline separated", "夜に駆ける\nyoru ni\n群青", "夜に駆ける\n群青"},
		{"arabic", "habibi حبيبي", "حبيبي"},
		{"gurmukhi", "ਪੰਜਾਬ da", "ਪੰਜਾਬ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.in)
			if !ok {
				t.Fatalf("Extract(%q): no runs found", tt.in)
			}
			if got != tt.want {
				t.Errorf("Extract(%q): got %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRuns_CountMatchesDisjointRuns(t *testing.T) {
	in := "一 a 二 b 三 c 四"
	runs := Runs(in)
	if len(runs) != 4 {
		t.Fatalf("Runs: got %d, want 4 (%q)", len(runs), runs)
	}
	joined, _ := Extract(in)
	if joined != strings.Join(runs, "\n") {
		t.Errorf("Extract and Runs disagree: %q vs %q", joined, runs)
	}
}

func TestMerge_Examples(t *testing.T) {
	tests := []struct {
		original  string
		romanized string
		want      string
	}{
		{"がんばって", "Ganbatte", "Ganbatte"},
		{"Hello がんばって world", "Ganbatte", "Hello Ganbatte world"},
		{"A 사랑 B любовь C", "sarang\nlyubov'", "A sarang B lyubov' C"},
	}
	for _, tt := range tests {
		got := Merge(tt.original, tt.romanized)
		if got != tt.want {
			t.Errorf("Merge(%q, %q): got %q, want %q", tt.original, tt.romanized, got, tt.want)
		}
	}
}

func TestMerge_RoundTripLeavesLatinUntouched(t *testing.T) {
	original := "Verse 1:\n君の名は (your name)\nchorus ☆ 青い空 ☆ end"
	joined, ok := Extract(original)
	if !ok {
		t.Fatal("expected runs")
	}
	n := len(strings.Split(joined, "\n"))

	repl := make([]string, n)
	for i := range repl {
		repl[i] = "R" + string(rune('0'+i))
	}
	got := Merge(original, strings.Join(repl, "\n"))

	want := "Verse 1:\nR0 (your name)\nchorus ☆ R1 ☆ end"
	if got != want {
		t.Errorf("Merge: got %q, want %q", got, want)
	}
}

func TestMerge_FewerReplacementsKeepsTrailingRuns(t *testing.T) {
	original := "一 and 二 and 三"
	got := Merge(original, "ichi")
	if got != "ichi and 二 and 三" {
		t.Errorf("Merge: got %q", got)
	}

	if got := Merge(original, ""); got != original {
		t.Errorf("Merge with no replacements: got %q, want original", got)
	}
}

func TestMerge_BlankLinesSkipped(t *testing.T) {
	got := Merge("一 二", "\n  \nichi\n\nni\n")
	if got != "ichi ni" {
		t.Errorf("Merge: got %q, want %q", got, "ichi ni")
	}
}

func TestMerge_ReplacementIsLiteral(t *testing.T) {
	got := Merge("一", "$1 cost")
	if got != "$1 cost" {
		t.Errorf("Merge: got %q, want literal replacement", got)
	}
}

func TestContainsNonLatin(t *testing.T) {
	if ContainsNonLatin("plain text") {
		t.Error("plain text reported as non-Latin")
	}
	if !ContainsNonLatin("plain text с кириллицей") {
		t.Error("cyrillic not detected")
	}
}
