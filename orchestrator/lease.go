package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/lyricsroman/romanize"
)

// lease is one acquired automation tab plus the tab to hand focus back to.
type lease struct {
	driver Driver
	tab    TabID
	prev   TabID
	log    *slog.Logger
}

// acquire records the focused tab, opens the automation tab and activates
// it. The translation page only initialises in a foreground tab.
func (o *Orchestrator) acquire(ctx context.Context, log *slog.Logger) (*lease, error) {
	prev, err := o.driver.ActiveTab(ctx)
	if err != nil {
		log.Warn("orchestrator: no active tab recorded", "error", err)
		prev = ""
	}

	tab, err := o.driver.OpenTab(ctx, o.cfg.TranslateURL)
	if err != nil {
		return nil, romanize.Wrap(romanize.ExtractionFailed, "orchestrator: open tab", err)
	}
	log.Debug("orchestrator: tab opened", "tab", tab, "previous", prev)

	l := &lease{driver: o.driver, tab: tab, prev: prev, log: log}
	if err := o.driver.Activate(ctx, tab); err != nil {
		log.Warn("orchestrator: activate automation tab", "tab", tab, "error", err)
	}
	return l, nil
}

// release restores focus and closes the automation tab. It runs on a
// context detached from the caller's cancellation so a cancelled request
// still cleans up. Failures are diagnostics, never returned.
func (l *lease) release(ctx context.Context, timeout time.Duration) []error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var diags []error
	if l.prev != "" && l.prev != l.tab {
		if err := l.driver.Activate(rctx, l.prev); err != nil {
			l.log.Warn("orchestrator: could not switch back to original tab (may have been closed)",
				"tab", l.prev, "error", err)
			diags = append(diags, err)
		}
	}
	if err := l.driver.CloseTab(rctx, l.tab); err != nil {
		l.log.Error("orchestrator: error closing tab", "tab", l.tab, "error", err)
		diags = append(diags, err)
	} else {
		l.log.Debug("orchestrator: tab closed", "tab", l.tab)
	}
	return diags
}
