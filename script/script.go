// Package script partitions lyrics text into Latin and non-Latin runs and
// splices romanized replacements back into the original text.
//
// Matching is positional: the i-th replacement line replaces the i-th
// non-Latin run. Nothing ties a replacement to the run it came from, so a
// translation service that drops or reorders lines shifts every later run.
package script

import (
	"regexp"
	"strings"
)

// nonLatin matches maximal runs of characters in the scripts the romanizer
// handles: Devanagari, Gurmukhi, Arabic, CJK (unified + ext A), Hangul
// (syllables, jamo, compatibility jamo, ext A/B), Hiragana, Katakana and
// Cyrillic.
var nonLatin = regexp.MustCompile(`[` +
	`\x{0900}-\x{097F}` + // Devanagari
	`\x{0A00}-\x{0A7F}` + // Gurmukhi
	`\x{0600}-\x{06FF}` + // Arabic
	`\x{4E00}-\x{9FFF}` + // CJK unified ideographs
	`\x{3400}-\x{4DBF}` + // CJK extension A
	`\x{AC00}-\x{D7AF}` + // Hangul syllables
	`\x{3040}-\x{309F}` + // Hiragana
	`\x{30A0}-\x{30FF}` + // Katakana
	`\x{0400}-\x{04FF}` + // Cyrillic
	`\x{1100}-\x{11FF}` + // Hangul jamo
	`\x{3130}-\x{318F}` + // Hangul compatibility jamo
	`\x{A960}-\x{A97F}` + // Hangul jamo extended A
	`\x{D7B0}-\x{D7FF}` + // Hangul jamo extended B
	`]+`)

// Runs returns every maximal non-Latin run of text in order of appearance.
func Runs(text string) []string {
	return nonLatin.FindAllString(text, -1)
}

// ContainsNonLatin reports whether text holds at least one non-Latin run.
func ContainsNonLatin(text string) bool {
	return nonLatin.MatchString(text)
}

// Extract joins the non-Latin runs of text with newlines. ok is false when
// the text is already entirely Latin and nothing needs romanizing.
func Extract(text string) (joined string, ok bool) {
	runs := Runs(text)
	if len(runs) == 0 {
		return "", false
	}
	return strings.Join(runs, "\n"), true
}

// Merge replaces the non-Latin runs of original, first to last, with the
// non-blank lines of romanized. Runs without a matching line are kept
// verbatim.
func Merge(original, romanized string) string {
	var parts []string
	for _, p := range strings.Split(romanized, "\n") {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}

	i := 0
	return nonLatin.ReplaceAllStringFunc(original, func(run string) string {
		if i >= len(parts) {
			return run
		}
		r := parts[i]
		i++
		return r
	})
}
