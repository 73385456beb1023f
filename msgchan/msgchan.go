// Package msgchan carries romanization requests from the page agent to the
// orchestrator, either in-process (Local) or over HTTP (Client/Server), and
// exposes the same operation as an MCP tool.
package msgchan

import (
	"context"
	"strings"

	"github.com/hazyhaar/lyricsroman/romanize"
)

// Sender delivers one request and returns the orchestrator's response.
// A non-nil error means the exchange itself failed, not the romanization.
type Sender interface {
	Send(ctx context.Context, req romanize.Request) (romanize.Response, error)
}

// Channel adapts a Sender to romanize.Romanizer. Failed responses are
// turned back into typed errors.
type Channel struct {
	sender Sender
}

// NewChannel wraps s.
func NewChannel(s Sender) *Channel {
	return &Channel{sender: s}
}

// Romanize sends text and returns the romanized string.
func (c *Channel) Romanize(ctx context.Context, text string) (string, error) {
	resp, err := c.sender.Send(ctx, romanize.NewRequest(text))
	if err != nil {
		return "", romanize.Wrap(romanize.MessageChannelError, "msgchan: send", err)
	}
	if !resp.Success {
		return "", romanize.ParseReason("msgchan", resp.Error)
	}
	if strings.TrimSpace(resp.RomanizedText) == "" {
		return "", romanize.Errorf(romanize.ExtractionFailed, "msgchan", "empty romanized text")
	}
	return resp.RomanizedText, nil
}
