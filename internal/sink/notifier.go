package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/lyricsroman/idgen"
	"github.com/hazyhaar/lyricsroman/pageagent"
	"github.com/hazyhaar/lyricsroman/render"
)

// Notifier turns page agent outcomes into events and delivers them to a
// Sink from a single goroutine, in order. Notify never blocks: when the
// queue is full the outcome is dropped and logged.
type Notifier struct {
	sink   Sink
	newID  idgen.Generator
	now    func() time.Time
	logger *slog.Logger

	queue chan Event
	done  chan struct{}
	once  sync.Once
}

var _ pageagent.Notifier = (*Notifier)(nil)

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithIDGenerator overrides the event ID generator (default "evt_" UUIDv7).
func WithIDGenerator(g idgen.Generator) NotifierOption {
	return func(n *Notifier) { n.newID = g }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) NotifierOption {
	return func(n *Notifier) { n.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) { n.logger = l }
}

// WithQueueSize sets the queue capacity. Default: 256.
func WithQueueSize(size int) NotifierOption {
	return func(n *Notifier) { n.queue = make(chan Event, size) }
}

// NewNotifier starts the delivery goroutine. Call Close to drain it.
func NewNotifier(s Sink, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		sink:   s,
		newID:  idgen.Prefixed("evt_", idgen.Default),
		now:    time.Now,
		logger: slog.Default(),
		queue:  make(chan Event, 256),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(n)
	}
	go n.loop()
	return n
}

func (n *Notifier) Notify(ctx context.Context, o pageagent.Outcome) {
	ev := Event{
		ID:        n.newID(),
		Type:      string(o.Type),
		SessionID: o.SessionID,
		URL:       o.URL,
		Reason:    o.Reason,
		At:        n.now().UTC(),
	}
	if o.Panel != "" {
		md, err := render.Markdown(o.Panel)
		if err != nil {
			n.logger.Debug("sink: panel to markdown", "error", err)
		}
		ev.Markdown = md
	}

	select {
	case n.queue <- ev:
	default:
		n.logger.Warn("sink: queue full, outcome dropped", "type", ev.Type, "session", ev.SessionID)
	}
}

func (n *Notifier) loop() {
	defer close(n.done)
	for ev := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := n.sink.Send(ctx, ev); err != nil {
			n.logger.Warn("sink: deliver outcome", "id", ev.ID, "error", err)
		}
		cancel()
	}
}

// Close delivers what is queued, then closes the sink. Notify must not be
// called after Close.
func (n *Notifier) Close() error {
	n.once.Do(func() { close(n.queue) })
	<-n.done
	return n.sink.Close()
}
