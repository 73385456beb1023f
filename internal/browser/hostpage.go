package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/lyricsroman/pageagent"
	"github.com/hazyhaar/lyricsroman/render"
)

// hostpageJS is a function expression installing window.__lyricsroman.
//
//go:embed hostpage.js
var hostpageJS string

const bindingName = "__lyricsroman_event"

const toggleCSS = `
.romanize-tab-button{margin-left:8px;padding:2px 8px;border-radius:12px;border:1px solid rgba(255,255,255,.3);background:transparent;color:inherit;font:inherit;font-size:12px;cursor:pointer}
.romanize-tab-button.active{background:rgba(255,255,255,.2)}
`

// HostPage implements pageagent.Host on the music page.
type HostPage struct {
	page   *rod.Page
	logger *slog.Logger
	events chan pageagent.Event
}

var _ pageagent.Host = (*HostPage)(nil)

// NewHostPage installs the page script and the event binding, then
// forwards binding calls to Events until ctx ends.
func NewHostPage(ctx context.Context, page *rod.Page, logger *slog.Logger) (*HostPage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HostPage{page: page, logger: logger, events: make(chan pageagent.Event, 64)}

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		return nil, fmt.Errorf("browser: add binding: %w", err)
	}
	// Full reloads lose window state; reinstall on every new document.
	if _, err := page.EvalOnNewDocument("(" + hostpageJS + ")();"); err != nil {
		return nil, fmt.Errorf("browser: install script: %w", err)
	}
	if _, err := page.Eval(hostpageJS); err != nil {
		return nil, fmt.Errorf("browser: inject script: %w", err)
	}

	go h.listen(ctx)
	return h, nil
}

func (h *HostPage) listen(ctx context.Context) {
	defer close(h.events)
	wait := h.page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		var ev pageagent.Event
		if err := json.Unmarshal([]byte(e.Payload), &ev); err != nil {
			h.logger.Warn("browser: parse page event", "error", err)
			return
		}
		select {
		case h.events <- ev:
		case <-ctx.Done():
		}
	})
	wait()
}

func (h *HostPage) Events() <-chan pageagent.Event { return h.events }

// call runs a method of the installed page script.
func (h *HostPage) call(ctx context.Context, method string, args ...any) (*proto.RuntimeRemoteObject, error) {
	js := fmt.Sprintf(`(...a) => window.__lyricsroman.%s(...a)`, method)
	res, err := h.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("browser: %s: %w", method, err)
	}
	return res, nil
}

func (h *HostPage) decode(ctx context.Context, method string, v any, args ...any) error {
	res, err := h.call(ctx, method, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), v); err != nil {
		return fmt.Errorf("browser: %s: decode: %w", method, err)
	}
	return nil
}

func (h *HostPage) URL(ctx context.Context) (string, error) {
	res, err := h.call(ctx, "url")
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (h *HostPage) Tabs(ctx context.Context) ([]pageagent.Tab, error) {
	var raw []struct {
		Index    int    `json:"index"`
		Label    string `json:"label"`
		Selected bool   `json:"selected"`
	}
	if err := h.decode(ctx, "tabs", &raw); err != nil {
		return nil, err
	}
	tabs := make([]pageagent.Tab, len(raw))
	for i, t := range raw {
		tabs[i] = pageagent.Tab{Index: t.Index, Label: t.Label, Selected: t.Selected}
	}
	return tabs, nil
}

func (h *HostPage) ClickTab(ctx context.Context, index int) error {
	res, err := h.call(ctx, "click", index)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: click: no tab at %d", index)
	}
	return nil
}

func (h *HostPage) Lyrics(ctx context.Context) (pageagent.Lyrics, error) {
	var raw struct {
		Found     bool   `json:"found"`
		HTML      string `json:"html"`
		Text      string `json:"text"`
		EmptyAttr bool   `json:"emptyAttr"`
		Rendered  bool   `json:"rendered"`
	}
	if err := h.decode(ctx, "lyrics", &raw); err != nil {
		return pageagent.Lyrics{}, err
	}
	return pageagent.Lyrics{
		Found:     raw.Found,
		HTML:      raw.HTML,
		Text:      raw.Text,
		EmptyAttr: raw.EmptyAttr,
		Rendered:  raw.Rendered,
	}, nil
}

func (h *HostPage) SetLyricsHTML(ctx context.Context, html string) error {
	h.ensureStyle(ctx)
	res, err := h.call(ctx, "setLyrics", html)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: set lyrics: node not found")
	}
	return nil
}

func (h *HostPage) ShelfPageType(ctx context.Context) (string, error) {
	res, err := h.call(ctx, "pageType")
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (h *HostPage) ToggleExists(ctx context.Context) (bool, error) {
	res, err := h.call(ctx, "toggleExists")
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (h *HostPage) InjectToggle(ctx context.Context, tabIndex int, label string) error {
	h.ensureStyle(ctx)
	res, err := h.call(ctx, "inject", tabIndex, label)
	if err != nil {
		return err
	}
	switch res.Value.Str() {
	case "ok":
		return nil
	case "no_content":
		return pageagent.ErrNoTabContent
	default:
		return fmt.Errorf("browser: inject: no tab at %d", tabIndex)
	}
}

func (h *HostPage) SetTogglePressed(ctx context.Context, pressed bool) error {
	_, err := h.call(ctx, "setPressed", pressed)
	return err
}

func (h *HostPage) RemoveToggle(ctx context.Context) error {
	_, err := h.call(ctx, "removeToggle")
	return err
}

func (h *HostPage) ShowNotice(ctx context.Context, html string) (bool, error) {
	h.ensureStyle(ctx)
	res, err := h.call(ctx, "notice", render.NoticeID, html)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (h *HostPage) ensureStyle(ctx context.Context) {
	if _, err := h.call(ctx, "style", render.Stylesheet+toggleCSS); err != nil {
		h.logger.Debug("browser: add stylesheet", "error", err)
	}
}
