// Package sink delivers page agent outcomes to output backends: JSON
// lines, a webhook, an SQLite log or an in-process callback.
package sink

import (
	"context"
	"time"
)

// Event is one outcome as recorded by the sinks.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
	Reason    string    `json:"reason,omitempty"`
	Markdown  string    `json:"markdown,omitempty"`
	At        time.Time `json:"at"`
}

// Sink is the output interface.
type Sink interface {
	Send(ctx context.Context, ev Event) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
