package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/lyricsroman/extraction"
	"github.com/hazyhaar/lyricsroman/orchestrator"
)

// tab is one page known to the Driver. Navigation runs in the background
// from OpenTab; navDone closes once it commits or fails.
type tab struct {
	page    *rod.Page
	navDone chan struct{}
	navErr  error
	cancel  context.CancelFunc
}

// waitNavigation blocks until the tab's navigation settled or ctx ends.
func (t *tab) waitNavigation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.navDone:
	}
	if t.navErr != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return t.navErr
}

func committedTab(page *rod.Page) *tab {
	done := make(chan struct{})
	close(done)
	return &tab{page: page, navDone: done, cancel: func() {}}
}

// Driver implements orchestrator.Driver over Rod pages. It tracks which
// page was last brought to the front, since CDP has no "focused tab" query
// that works headless.
type Driver struct {
	mgr *Manager

	mu     sync.Mutex
	tabs   map[orchestrator.TabID]*tab
	active orchestrator.TabID
}

var _ orchestrator.Driver = (*Driver)(nil)

// NewDriver creates a Driver on a started Manager.
func NewDriver(mgr *Manager) *Driver {
	return &Driver{mgr: mgr, tabs: make(map[orchestrator.TabID]*tab)}
}

// Register adds a page the driver did not open (the music page) and marks
// it active.
func (d *Driver) Register(page *rod.Page) orchestrator.TabID {
	id := orchestrator.TabID(page.TargetID)
	d.mu.Lock()
	d.tabs[id] = committedTab(page)
	d.active = id
	d.mu.Unlock()
	return id
}

func (d *Driver) ActiveTab(ctx context.Context) (orchestrator.TabID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == "" {
		return "", fmt.Errorf("browser: no active tab")
	}
	return d.active, nil
}

// OpenTab creates the tab and starts navigating it without waiting, so
// the caller's WaitLoad bound covers navigation and load together.
func (d *Driver) OpenTab(ctx context.Context, url string) (orchestrator.TabID, error) {
	page, err := d.mgr.NewPage(true)
	if err != nil {
		return "", err
	}
	navCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &tab{page: page, navDone: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(t.navDone)
		t.navErr = d.mgr.Navigate(navCtx, page, url)
	}()

	id := orchestrator.TabID(page.TargetID)
	d.mu.Lock()
	d.tabs[id] = t
	d.mu.Unlock()
	return id, nil
}

func (d *Driver) Activate(ctx context.Context, id orchestrator.TabID) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if _, err := t.page.Context(ctx).Activate(); err != nil {
		return fmt.Errorf("browser: activate %s: %w", id, err)
	}
	d.mu.Lock()
	d.active = id
	d.mu.Unlock()
	return nil
}

func (d *Driver) WaitLoad(ctx context.Context, id orchestrator.TabID) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if err := t.waitNavigation(ctx); err != nil {
		return err
	}
	if err := t.page.Context(ctx).WaitLoad(); err != nil {
		// Rod reports a cancelled wait with its own error; surface the
		// context's so the orchestrator can tell a timeout apart.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("browser: wait load %s: %w", id, err)
	}
	return nil
}

func (d *Driver) Document(ctx context.Context, id orchestrator.TabID) (extraction.Document, error) {
	t, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	return NewDocument(t.page), nil
}

func (d *Driver) CloseTab(ctx context.Context, id orchestrator.TabID) error {
	d.mu.Lock()
	t, ok := d.tabs[id]
	delete(d.tabs, id)
	if d.active == id {
		d.active = ""
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("browser: unknown tab %s", id)
	}
	t.cancel()
	if err := t.page.Close(); err != nil {
		return fmt.Errorf("browser: close %s: %w", id, err)
	}
	return nil
}

func (d *Driver) lookup(id orchestrator.TabID) (*tab, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tabs[id]
	if !ok {
		return nil, fmt.Errorf("browser: unknown tab %s", id)
	}
	return t, nil
}
