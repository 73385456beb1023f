package msgchan

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hazyhaar/lyricsroman/idgen"
	"github.com/hazyhaar/lyricsroman/kit"
	"github.com/hazyhaar/lyricsroman/romanize"
)

// Local delivers requests to a handler in the same process.
type Local struct {
	endpoint kit.Endpoint
	newID    idgen.Generator
}

// NewLocal wraps h with panic recovery and call logging.
func NewLocal(h romanize.Handler, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		endpoint: endpointFor(h, logger),
		newID:    idgen.Prefixed("req_", idgen.Default),
	}
}

// Send runs the handler and waits for it or for ctx. The handler receives
// ctx and is expected to return shortly after it ends.
func (l *Local) Send(ctx context.Context, req romanize.Request) (romanize.Response, error) {
	ctx = kit.WithRequestID(kit.WithTransport(ctx, "local"), l.newID())

	type result struct {
		resp any
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := l.endpoint(ctx, req)
		done <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		return romanize.Response{}, romanize.Wrap(romanize.MessageChannelError, "msgchan: local", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return romanize.Response{}, romanize.Wrap(romanize.MessageChannelError, "msgchan: local", r.err)
		}
		resp, ok := r.resp.(romanize.Response)
		if !ok {
			return romanize.Response{}, romanize.Wrap(romanize.MessageChannelError, "msgchan: local",
				errors.New("unexpected response type"))
		}
		return resp, nil
	}
}

// endpointFor adapts a Handler to a kit.Endpoint taking a romanize.Request
// (or *romanize.Request) and returning a romanize.Response.
func endpointFor(h romanize.Handler, logger *slog.Logger) kit.Endpoint {
	base := func(ctx context.Context, req any) (any, error) {
		switch r := req.(type) {
		case romanize.Request:
			return h(ctx, r), nil
		case *romanize.Request:
			return h(ctx, *r), nil
		default:
			return nil, errors.New("msgchan: unsupported request type")
		}
	}
	return kit.Chain(kit.Recovery(logger), kit.Logging(logger, "romanize"))(base)
}
