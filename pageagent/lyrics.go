package pageagent

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EnsureLyricsTabActive selects the Lyrics tab, clicking it and waiting
// the settle delay when it is not already selected.
func (a *Agent) EnsureLyricsTabActive(ctx context.Context) (Tab, error) {
	tabs, err := a.host.Tabs(ctx)
	if err != nil {
		return Tab{}, fmt.Errorf("pageagent: tabs: %w", err)
	}
	tab, ok := findTab(tabs, LabelLyrics)
	if !ok {
		return Tab{}, ErrLyricsTabNotFound
	}
	if tab.Selected {
		return tab, nil
	}

	a.logger.Debug("pageagent: activating lyrics tab", "index", tab.Index)
	if err := a.host.ClickTab(ctx, tab.Index); err != nil {
		return Tab{}, fmt.Errorf("pageagent: click lyrics tab: %w", err)
	}
	if err := a.sleep(ctx, a.cfg.Delays.TabSettle); err != nil {
		return Tab{}, err
	}

	if tabs, err := a.host.Tabs(ctx); err == nil {
		if cur, ok := findTab(tabs, LabelLyrics); ok && !cur.Selected {
			a.logger.Warn("pageagent: lyrics tab may not have activated")
		}
	}
	return tab, nil
}

// FindAndStoreLyrics makes sure the lyrics node is loaded and snapshots it
// when the session has none or the live lyrics changed. It reports false
// when no usable lyrics exist.
func (a *Agent) FindAndStoreLyrics(ctx context.Context) (bool, error) {
	sess := a.Session()

	if _, err := a.EnsureLyricsTabActive(ctx); err != nil {
		a.logger.Debug("pageagent: no lyrics tab", "error", err)
		return false, nil
	}

	lyr, err := a.host.Lyrics(ctx)
	if err != nil {
		return false, fmt.Errorf("pageagent: read lyrics: %w", err)
	}
	if !lyr.Found {
		a.logger.Debug("pageagent: no lyrics node")
		return false, nil
	}

	if !lyr.Loaded() {
		a.logger.Info("pageagent: lyrics empty or loading, trying tab switch workaround")
		ok, err := a.reloadWithTabSwitch(ctx)
		if err != nil || !ok {
			return false, err
		}
		if lyr, err = a.host.Lyrics(ctx); err != nil {
			return false, fmt.Errorf("pageagent: read lyrics: %w", err)
		}
		if !lyr.Loaded() {
			a.logger.Info("pageagent: lyrics still not loaded after tab switch")
			return false, nil
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sess != sess {
		return false, nil
	}
	switch {
	case sess.Snapshot == nil:
		sess.Snapshot = &Snapshot{OriginalHTML: lyr.HTML, OriginalText: lyr.Text, SourceURL: sess.URL}
		a.logger.Debug("pageagent: lyrics snapshot taken", "chars", len([]rune(lyr.Text)))
	case lyr.Rendered:
		// Our own panel is showing; the snapshot is still the original.
	case lyr.Text != sess.Snapshot.OriginalText:
		sess.Snapshot = &Snapshot{OriginalHTML: lyr.HTML, OriginalText: lyr.Text, SourceURL: sess.URL}
		a.logger.Info("pageagent: lyrics changed, snapshot replaced")
	}
	return true, nil
}

// reloadWithTabSwitch clicks away from Lyrics and back, which makes the
// host page populate a lyrics node it left empty.
func (a *Agent) reloadWithTabSwitch(ctx context.Context) (bool, error) {
	tabs, err := a.host.Tabs(ctx)
	if err != nil {
		return false, fmt.Errorf("pageagent: tabs: %w", err)
	}
	lyrics, ok := findTab(tabs, LabelLyrics)
	if !ok {
		return false, nil
	}
	// The last non-Lyrics tab wins: Related on the usual strip.
	var other Tab
	ok = false
	for _, t := range tabs {
		if strings.Contains(t.Label, LabelUpNext) || strings.Contains(t.Label, LabelRelated) {
			other, ok = t, true
		}
	}
	if !ok {
		a.logger.Debug("pageagent: no tab to switch through")
		return false, nil
	}

	if err := a.clickAndWait(ctx, other.Index, a.cfg.Delays.TabSettle); err != nil {
		return false, err
	}
	if err := a.clickAndWait(ctx, lyrics.Index, a.cfg.Delays.TabSettle); err != nil {
		return false, err
	}
	if err := a.sleep(ctx, a.cfg.Delays.WorkaroundReload); err != nil {
		return false, err
	}
	return true, nil
}

// UniversalTabSwitch bounces between Lyrics and Related, starting from the
// tab labelled original, so the host page re-renders the shelf for the new
// song. Only Lyrics and Related take part; from any other tab it reports
// false without clicking.
func (a *Agent) UniversalTabSwitch(ctx context.Context, original string) (bool, error) {
	tabs, err := a.host.Tabs(ctx)
	if err != nil {
		return false, fmt.Errorf("pageagent: tabs: %w", err)
	}

	var target Tab
	var ok bool
	switch {
	case strings.Contains(original, LabelLyrics):
		target, ok = findTab(tabs, LabelRelated)
	case strings.Contains(original, LabelRelated):
		target, ok = findTab(tabs, LabelLyrics)
	default:
		a.logger.Debug("pageagent: tab switch skipped", "tab", original)
		return false, nil
	}
	if !ok {
		a.logger.Debug("pageagent: no tab to switch to", "from", original)
		return false, nil
	}

	home, found := Tab{}, false
	for _, t := range tabs {
		if t.Label == original {
			home, found = t, true
			break
		}
	}
	if !found {
		if len(tabs) == 0 {
			return false, nil
		}
		home = tabs[0]
	}

	a.logger.Debug("pageagent: tab switch", "from", original, "via", target.Label)
	if err := a.clickAndWait(ctx, target.Index, a.cfg.Delays.TabSettle); err != nil {
		return false, err
	}
	if err := a.sleep(ctx, a.cfg.Delays.SwitchDwell); err != nil {
		return false, err
	}
	if err := a.clickAndWait(ctx, home.Index, a.cfg.Delays.TabSettle); err != nil {
		return false, err
	}

	if tabs, err := a.host.Tabs(ctx); err == nil {
		if cur, ok := selectedTab(tabs); ok && !strings.Contains(cur.Label, original) {
			a.logger.Warn("pageagent: wrong tab after switch, correcting", "want", original, "got", cur.Label)
			if err := a.clickAndWait(ctx, home.Index, a.cfg.Delays.SwitchCorrection); err != nil {
				return false, err
			}
		}
	}

	if err := a.sleep(ctx, a.cfg.Delays.ContentSettle); err != nil {
		return false, err
	}

	if strings.Contains(original, LabelLyrics) {
		pageType, err := a.host.ShelfPageType(ctx)
		if err != nil {
			a.logger.Debug("pageagent: read page type", "error", err)
		}
		if !strings.Contains(pageType, "LYRICS") {
			a.logger.Info("pageagent: shelf not showing lyrics, emergency refresh", "page_type", pageType)
			if related, ok := findTab(tabs, LabelRelated); ok {
				if err := a.clickAndWait(ctx, related.Index, a.cfg.Delays.EmergencyDwell); err != nil {
					return false, err
				}
				if err := a.clickAndWait(ctx, home.Index, a.cfg.Delays.EmergencyReload); err != nil {
					return false, err
				}
			}
		}
	}
	return true, nil
}

func (a *Agent) clickAndWait(ctx context.Context, index int, d time.Duration) error {
	if err := a.host.ClickTab(ctx, index); err != nil {
		return fmt.Errorf("pageagent: click tab %d: %w", index, err)
	}
	return a.sleep(ctx, d)
}
