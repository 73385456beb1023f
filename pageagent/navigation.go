package pageagent

import (
	"context"
	"strings"
)

// HandleNavigation reacts to a URL change: it restores the page's lyrics,
// replaces the Session (dropping snapshot and cache), removes the toggle
// and schedules the tab-switch workaround and re-injection.
func (a *Agent) HandleNavigation(ctx context.Context, oldURL, newURL string) error {
	a.logger.Info("pageagent: navigation", "old", oldURL, "new", newURL)

	a.Restore(ctx)

	sess := newSession(a.cfg.NewID(), newURL)
	a.mu.Lock()
	a.sess = sess
	a.mu.Unlock()

	if err := a.host.RemoveToggle(ctx); err != nil {
		a.logger.Warn("pageagent: remove toggle", "error", err)
	}
	a.notify(ctx, sess, OutcomeNavigated, "", "")

	label := "Unknown"
	if tabs, err := a.host.Tabs(ctx); err == nil {
		if t, ok := selectedTab(tabs); ok {
			label = normalizeLabel(t.Label)
		}
	}

	if strings.Contains(label, LabelLyrics) {
		a.after(ctx, a.cfg.Delays.NavigationSettle, func(ctx context.Context) {
			if !a.isCurrent(sess) {
				return
			}
			ok, err := a.UniversalTabSwitch(ctx, label)
			if err != nil {
				a.logger.Warn("pageagent: tab switch", "error", err)
			}
			if !a.isCurrent(sess) {
				return
			}
			if ok {
				a.injectWithRetry(ctx)
				return
			}
			a.after(ctx, a.cfg.Delays.FallbackInject, func(ctx context.Context) {
				if a.isCurrent(sess) {
					a.injectWithRetry(ctx)
				}
			})
		})
		return nil
	}

	if !a.cfg.EagerTabSwitch {
		a.mu.Lock()
		sess.switchOnLyrics = true
		a.mu.Unlock()
	}
	a.after(ctx, a.cfg.Delays.DeferredInject, func(ctx context.Context) {
		if a.isCurrent(sess) {
			a.injectWithRetry(ctx)
		}
	})
	return nil
}

// handleTabSelected runs the deferred tab switch the first time the user
// enters the Lyrics tab after a navigation.
func (a *Agent) handleTabSelected(ctx context.Context, label string) {
	label = normalizeLabel(label)
	if !strings.Contains(label, LabelLyrics) {
		return
	}
	a.mu.Lock()
	sess := a.sess
	pending := sess.switchOnLyrics
	sess.switchOnLyrics = false
	a.mu.Unlock()
	if !pending {
		return
	}

	a.logger.Info("pageagent: deferred tab switch on lyrics entry")
	a.after(ctx, a.cfg.Delays.DeferredSwitch, func(ctx context.Context) {
		if !a.isCurrent(sess) {
			return
		}
		if _, err := a.UniversalTabSwitch(ctx, label); err != nil {
			a.logger.Warn("pageagent: deferred tab switch", "error", err)
		}
	})
}
