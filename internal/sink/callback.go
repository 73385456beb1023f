package sink

import "context"

// Callback delivers events as in-process function calls.
type Callback func(ctx context.Context, ev Event) error

func (c Callback) Send(ctx context.Context, ev Event) error {
	if c == nil {
		return nil
	}
	return c(ctx, ev)
}

func (c Callback) Close() error { return nil }
