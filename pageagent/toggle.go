package pageagent

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/lyricsroman/render"
	"github.com/hazyhaar/lyricsroman/romanize"
	"github.com/hazyhaar/lyricsroman/script"
)

// errRetryLater means injection should be attempted again after the
// retry delay.
var errRetryLater = errors.New("pageagent: tab strip not ready")

// injectWithRetry injects the toggle, retrying while the tab strip is not
// rendered, up to MaxInjectRetries attempts per session.
func (a *Agent) injectWithRetry(ctx context.Context) {
	sess := a.Session()
	err := a.InjectToggle(ctx)
	if !errors.Is(err, errRetryLater) {
		if err != nil {
			a.logger.Warn("pageagent: inject toggle", "error", err)
		}
		return
	}

	a.mu.Lock()
	sess.injectAttempts++
	attempts := sess.injectAttempts
	a.mu.Unlock()
	if attempts >= a.cfg.MaxInjectRetries {
		a.logger.Warn("pageagent: giving up on toggle injection", "attempts", attempts)
		return
	}
	a.after(ctx, a.cfg.Delays.InjectRetry, func(ctx context.Context) {
		if a.isCurrent(sess) {
			a.injectWithRetry(ctx)
		}
	})
}

// InjectToggle adds the toggle to the Lyrics tab label, or to the first
// tab when there is no Lyrics tab. It does nothing when the toggle exists
// or another injection is in flight. errRetryLater is returned when no
// tab can hold it yet.
func (a *Agent) InjectToggle(ctx context.Context) error {
	sess := a.Session()

	exists, err := a.host.ToggleExists(ctx)
	if err != nil {
		return fmt.Errorf("pageagent: toggle exists: %w", err)
	}
	if exists {
		return nil
	}

	a.mu.Lock()
	if sess.injecting {
		a.mu.Unlock()
		return nil
	}
	sess.injecting = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		sess.injecting = false
		a.mu.Unlock()
	}()

	if a.cfg.ToggleOnlyWithNonLatin {
		lyr, err := a.host.Lyrics(ctx)
		if err != nil || !lyr.Found || !script.ContainsNonLatin(lyr.Text) {
			a.logger.Debug("pageagent: no non-Latin lyrics, toggle hidden")
			return nil
		}
	}

	tabs, err := a.host.Tabs(ctx)
	if err != nil {
		return fmt.Errorf("pageagent: tabs: %w", err)
	}
	if len(tabs) == 0 {
		return errRetryLater
	}
	target, ok := findTab(tabs, LabelLyrics)
	if !ok {
		target = tabs[0]
		a.logger.Debug("pageagent: no lyrics tab, using first tab", "label", target.Label)
	}

	if !a.isCurrent(sess) {
		return nil
	}
	if err := a.host.InjectToggle(ctx, target.Index, a.cfg.ToggleLabel); err != nil {
		if errors.Is(err, ErrNoTabContent) {
			return errRetryLater
		}
		return fmt.Errorf("pageagent: inject toggle: %w", err)
	}

	a.mu.Lock()
	pressed := sess.Pressed
	a.mu.Unlock()
	if pressed {
		if err := a.host.SetTogglePressed(ctx, true); err != nil {
			a.logger.Warn("pageagent: mirror toggle state", "error", err)
		}
	}
	a.logger.Info("pageagent: toggle injected", "tab", target.Label)
	return nil
}

// OnToggleClick flips the toggle state and renders the matching view.
func (a *Agent) OnToggleClick(ctx context.Context) {
	a.mu.Lock()
	sess := a.sess
	sess.Pressed = !sess.Pressed
	pressed := sess.Pressed
	a.mu.Unlock()

	if err := a.host.SetTogglePressed(ctx, pressed); err != nil {
		a.logger.Warn("pageagent: set toggle state", "error", err)
	}
	if !pressed {
		a.ShowOriginal(ctx)
		return
	}
	if err := a.ShowRomanized(ctx); err != nil {
		a.logger.Info("pageagent: romanized view unavailable", "reason", romanize.Reason(err))
	}
}

// ShowRomanized renders the romanized lyrics for the current song, from
// cache when the URL matches, otherwise through a romanization round trip.
// Failures are rendered into the page and returned.
func (a *Agent) ShowRomanized(ctx context.Context) error {
	sess := a.Session()

	found, err := a.FindAndStoreLyrics(ctx)
	if err != nil {
		a.logger.Warn("pageagent: find lyrics", "error", err)
	}
	a.mu.Lock()
	snap := sess.Snapshot
	a.mu.Unlock()
	if !found || snap == nil {
		a.showNotice(ctx, sess)
		return romanize.Errorf(romanize.LyricsNotFound, "pageagent", "no lyrics available to romanize for this song")
	}

	text := snap.OriginalText
	extracted, ok := script.Extract(text)
	if !ok {
		a.logger.Info("pageagent: lyrics already Latin, nothing to do")
		a.setPressed(ctx, sess, false)
		return nil
	}

	url, err := a.host.URL(ctx)
	if err != nil {
		url = sess.URL
	}

	a.mu.Lock()
	cached := sess.Cache
	a.mu.Unlock()
	if cached != nil && cached.URL == url && cached.Text != "" {
		a.logger.Debug("pageagent: using cached romanization")
		return a.writePanel(ctx, sess, OutcomeCached, func() (string, error) {
			return render.Romanized(text, cached.Text, render.StatusCached)
		})
	}

	// The toggle may have been released while the tab settled.
	if !a.stillPressed(sess) {
		a.logger.Debug("pageagent: toggle released before romanization")
		return nil
	}
	if panel, err := render.Loading(text); err == nil {
		if err := a.host.SetLyricsHTML(ctx, panel); err != nil {
			a.logger.Warn("pageagent: show loading", "error", err)
		}
	}

	a.logger.Info("pageagent: romanizing", "runs", len(script.Runs(text)), "chars", len([]rune(extracted)))
	rctx, cancel := context.WithTimeout(ctx, a.cfg.RomanizeTimeout)
	romanized, err := a.cfg.Romanizer.Romanize(rctx, extracted)
	cancel()

	if !a.isCurrent(sess) {
		a.logger.Debug("pageagent: song changed during romanization, result dropped")
		return nil
	}
	var merged string
	if err == nil {
		merged = script.Merge(text, romanized)
		a.mu.Lock()
		sess.Cache = &Cache{URL: url, Text: merged}
		a.mu.Unlock()
	}
	if !a.stillPressed(sess) {
		// Never leave the loading panel behind a released toggle.
		a.Restore(ctx)
		a.logger.Debug("pageagent: toggle released during romanization, result dropped")
		return nil
	}
	if err != nil {
		reason := romanize.Reason(err)
		a.logger.Warn("pageagent: romanization failed", "reason", reason)
		panel, rerr := render.Error(text, reason)
		if rerr == nil {
			if werr := a.host.SetLyricsHTML(ctx, panel); werr != nil {
				a.logger.Warn("pageagent: show error", "error", werr)
			}
		}
		a.notify(ctx, sess, OutcomeFailed, reason, panel)
		return err
	}

	return a.writePanel(ctx, sess, OutcomeRomanized, func() (string, error) {
		return render.Romanized(text, merged, render.StatusFresh)
	})
}

// writePanel renders and writes a panel unless the user has switched back
// to the original view in the meantime.
func (a *Agent) writePanel(ctx context.Context, sess *Session, t OutcomeType, build func() (string, error)) error {
	panel, err := build()
	if err != nil {
		return err
	}
	if !a.isCurrent(sess) || !a.stillPressed(sess) {
		return nil
	}
	if err := a.host.SetLyricsHTML(ctx, panel); err != nil {
		return fmt.Errorf("pageagent: write lyrics: %w", err)
	}
	a.notify(ctx, sess, t, "", panel)
	return nil
}

// ShowOriginal puts the snapshot back.
func (a *Agent) ShowOriginal(ctx context.Context) {
	sess := a.Session()
	if a.Restore(ctx) {
		a.notify(ctx, sess, OutcomeReverted, "", "")
	}
}

func (a *Agent) showNotice(ctx context.Context, sess *Session) {
	panel, err := render.Notice()
	if err != nil {
		return
	}
	ok, err := a.host.ShowNotice(ctx, panel)
	if err != nil || !ok {
		a.logger.Debug("pageagent: no container for notice", "error", err)
	}
	a.notify(ctx, sess, OutcomeNoLyrics, string(romanize.LyricsNotFound), panel)
}

func (a *Agent) stillPressed(sess *Session) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sess.Pressed
}

func (a *Agent) setPressed(ctx context.Context, sess *Session, pressed bool) {
	a.mu.Lock()
	sess.Pressed = pressed
	a.mu.Unlock()
	if err := a.host.SetTogglePressed(ctx, pressed); err != nil {
		a.logger.Warn("pageagent: set toggle state", "error", err)
	}
}
