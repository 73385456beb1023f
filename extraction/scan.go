package extraction

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// minCandidateLen is the shortest span text the fallback scan accepts.
// Shorter spans are UI labels ("Copy", "Listen").
const minCandidateLen = 10

// ScanForTranslation walks the spans of page in document order and returns
// the first one whose text is longer than minCandidateLen, differs from
// input and contains a Latin letter.
func ScanForTranslation(page, input string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", false
	}

	var found string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Span {
			text := textContent(n)
			if utf8.RuneCountInString(text) > minCandidateLen && text != input && latinLetter.MatchString(text) {
				found = text
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if walk(doc) {
		return found, true
	}
	return "", false
}

// textContent mirrors the DOM property: all descendant text, unmodified.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
