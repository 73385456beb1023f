// Package romanize holds the contract shared by the page agent and the
// automation orchestrator: the request/response messages exchanged over the
// channel and the typed failure kinds.
package romanize

import "context"

// ActionRomanizeText is the only action the orchestrator understands.
const ActionRomanizeText = "romanizeText"

// Request asks the orchestrator to romanize Text. There is no correlation
// ID: one request, one response, on the same exchange.
type Request struct {
	Action string `json:"action"`
	Text   string `json:"text"`
}

// Response is the orchestrator's answer. Exactly one of RomanizedText and
// Error is meaningful, selected by Success.
type Response struct {
	Success       bool   `json:"success"`
	RomanizedText string `json:"romanizedText,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewRequest builds a romanizeText request.
func NewRequest(text string) Request {
	return Request{Action: ActionRomanizeText, Text: text}
}

// Succeeded builds a success response.
func Succeeded(text string) Response {
	return Response{Success: true, RomanizedText: text}
}

// Failed builds a failure response carrying the typed reason of err.
func Failed(err error) Response {
	return Response{Success: false, Error: Reason(err)}
}

// Handler answers a request. Handlers never return Go errors: every
// failure is folded into the response.
type Handler func(ctx context.Context, req Request) Response

// Romanizer turns text into its romanized form.
type Romanizer interface {
	Romanize(ctx context.Context, text string) (string, error)
}

// RomanizerFunc adapts a function to Romanizer.
type RomanizerFunc func(ctx context.Context, text string) (string, error)

func (f RomanizerFunc) Romanize(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}
