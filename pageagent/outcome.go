package pageagent

import "context"

// OutcomeType classifies what the agent did.
type OutcomeType string

const (
	OutcomeRomanized OutcomeType = "romanized"
	OutcomeCached    OutcomeType = "cached"
	OutcomeReverted  OutcomeType = "reverted"
	OutcomeFailed    OutcomeType = "failed"
	OutcomeNoLyrics  OutcomeType = "no_lyrics"
	OutcomeNavigated OutcomeType = "navigated"
)

// Outcome is reported to the Notifier after each user-visible change.
type Outcome struct {
	Type      OutcomeType
	SessionID string
	URL       string
	// Reason is the typed failure reason for OutcomeFailed.
	Reason string
	// Panel is the HTML written to the lyrics node, if any.
	Panel string
}

// Notifier receives outcomes. Implementations must not block for long.
type Notifier interface {
	Notify(ctx context.Context, o Outcome)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, o Outcome)

func (f NotifierFunc) Notify(ctx context.Context, o Outcome) { f(ctx, o) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Outcome) {}
