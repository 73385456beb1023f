// Package render produces the HTML panels written into the host page's
// lyrics node. Templates escape every lyric; the result is then passed
// through a bluemonday policy that only admits the panel markup.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

// Status lines shown above romanized lyrics.
const (
	StatusFresh   = "Pronunciation lyrics • Multi-language support"
	StatusCached  = "Pronunciation lyrics • Cached"
	StatusLoading = "Romanizing lyrics using Google Translate..."
)

// NoticeID is the element id of the no-lyrics notice, so a later notice
// can replace an earlier one.
const NoticeID = "romanize-no-lyrics-message"

// Stylesheet is added to the host page once; panels only carry classes.
const Stylesheet = `
.lr-panel{font-family:inherit}
.lr-status{color:#aaa;font-size:12px;margin-bottom:8px}
.lr-error{color:#ff4444;font-size:12px;margin-bottom:8px}
.lr-detail{color:#aaa;font-size:11px;margin-bottom:8px}
.lr-lyrics{line-height:1.6}
.lr-dim{opacity:.5}
.lr-original{margin-top:16px;padding-top:16px;border-top:1px solid #333}
.lr-original .lr-lyrics{opacity:.7}
.lr-notice{padding:20px;text-align:center;color:#aaa;background:rgba(0,0,0,.1);border-radius:8px;margin:10px;border:1px solid rgba(255,255,255,.1)}
.lr-notice-title{font-size:16px;margin-bottom:8px}
.lr-notice-body{font-size:14px;opacity:.8}
.lr-notice-hint{font-size:12px;margin-top:8px;opacity:.6}
`

var tmpl = template.Must(template.New("panels").Funcs(template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(`
{{define "lyrics"}}<div class="lr-lyrics{{if .Dim}} lr-dim{{end}}">{{range $i, $l := lines .Text}}{{if $i}}<br>{{end}}{{$l}}{{end}}</div>{{end}}
{{define "original"}}<div class="lr-original"><div class="lr-status">Original lyrics:</div>{{template "lyrics" .}}</div>{{end}}

{{define "romanized"}}<div class="lr-panel"><div class="lr-status">{{.Status}}</div>{{template "lyrics" .Romanized}}{{template "original" .Original}}</div>{{end}}

{{define "loading"}}<div class="lr-panel"><div class="lr-status">{{.Status}}</div>{{template "lyrics" .Original}}</div>{{end}}

{{define "error"}}<div class="lr-panel"><div class="lr-error">❌ Romanization failed - Check internet connection</div><div class="lr-detail">Error: {{.Reason}}</div>{{template "original" .Original}}</div>{{end}}

{{define "notice"}}<div id="{{.ID}}" class="lr-notice"><div class="lr-notice-title">📝 Romanize Button Active</div><div class="lr-notice-body">No lyrics available to romanize for this song</div><div class="lr-notice-hint">Try switching to a song with lyrics to use romanization</div></div>{{end}}
`))

type block struct {
	Text string
	Dim  bool
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "br")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^lr-[a-z-]+( lr-[a-z-]+)*$`)).OnElements("div")
	p.AllowAttrs("id").Matching(regexp.MustCompile(`^` + NoticeID + `$`)).OnElements("div")
	return p
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render: %s: %w", name, err)
	}
	return policy.Sanitize(buf.String()), nil
}

// Romanized renders the romanized lyrics under status, with the original
// lyrics underneath.
func Romanized(original, romanized, status string) (string, error) {
	return execute("romanized", struct {
		Status              string
		Romanized, Original block
	}{status, block{Text: romanized}, block{Text: original}})
}

// Loading renders the in-progress panel: the original lyrics dimmed.
func Loading(original string) (string, error) {
	return execute("loading", struct {
		Status   string
		Original block
	}{StatusLoading, block{Text: original, Dim: true}})
}

// Error renders a failure with its typed reason and the original lyrics.
func Error(original, reason string) (string, error) {
	return execute("error", struct {
		Reason   string
		Original block
	}{reason, block{Text: original}})
}

// Notice renders the "no lyrics" message.
func Notice() (string, error) {
	return execute("notice", struct{ ID string }{NoticeID})
}

var md = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// Markdown converts a panel to Markdown for event sinks.
func Markdown(panelHTML string) (string, error) {
	out, err := md.ConvertString(panelHTML)
	if err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	return strings.TrimSpace(out), nil
}
