package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
)

// Document implements extraction.Document with page-side JS.
type Document struct {
	page *rod.Page
}

// NewDocument wraps a page.
func NewDocument(page *rod.Page) *Document { return &Document{page: page} }

func (d *Document) Exists(ctx context.Context, selector string) (bool, error) {
	res, err := d.page.Context(ctx).Eval(`(sel) => document.querySelector(sel) !== null`, selector)
	if err != nil {
		return false, fmt.Errorf("browser: exists %q: %w", selector, err)
	}
	return res.Value.Bool(), nil
}

// setInputJS writes through every property a framework may read and fires
// the events the translation page listens to.
const setInputJS = `(sel, text) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.value = text;
	el.innerHTML = text;
	el.textContent = text;
	el.focus();
	for (const type of ["focus", "input", "change", "keyup", "paste"]) {
		el.dispatchEvent(new Event(type, { bubbles: true }));
	}
	return true;
}`

func (d *Document) SetInput(ctx context.Context, selector, text string) error {
	res, err := d.page.Context(ctx).Eval(setInputJS, selector, text)
	if err != nil {
		return fmt.Errorf("browser: set input %q: %w", selector, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: set input: %q not found", selector)
	}
	return nil
}

func (d *Document) Text(ctx context.Context, selector string) (string, error) {
	res, err := d.page.Context(ctx).Eval(`(sel) => {
		const el = document.querySelector(sel);
		return el ? (el.textContent || "") : "";
	}`, selector)
	if err != nil {
		return "", fmt.Errorf("browser: text %q: %w", selector, err)
	}
	return res.Value.Str(), nil
}

func (d *Document) HTML(ctx context.Context) (string, error) {
	html, err := d.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: html: %w", err)
	}
	return html, nil
}
