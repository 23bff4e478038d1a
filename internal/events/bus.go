package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/ShayCichocki/tandem/internal/logging"
)

// Handler reacts to an event. Returned errors are logged and otherwise ignored.
type Handler func(ctx context.Context, ev Event) error

// SubscriptionID identifies one Subscribe call.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus is an in-process publish/subscribe hub keyed by event kind.
//
// Publish runs every handler for the event's kind concurrently and returns
// once all of them finished, so events from a single publisher are observed
// in publication order. A failing or panicking handler never affects the
// others or the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Kind][]subscription
	nextID atomic.Uint64
	logger *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger for handler failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logging.OrNop(l)
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[Kind][]subscription),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for events of kind. Subscribing the same handler
// twice yields two independent subscriptions.
func (b *Bus) Subscribe(kind Kind, h Handler) SubscriptionID {
	id := SubscriptionID(b.nextID.Add(1))
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: h})
	return id
}

// SubscribeAll registers h for every kind and returns the ids in Kinds() order.
func (b *Bus) SubscribeAll(h Handler) []SubscriptionID {
	kinds := Kinds()
	ids := make([]SubscriptionID, 0, len(kinds))
	for _, k := range kinds {
		ids = append(ids, b.Subscribe(k, h))
	}
	return ids
}

// Unsubscribe removes the first subscription with id under kind.
// It returns false when nothing matched.
func (b *Bus) Unsubscribe(kind Kind, id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[kind]
	for i, s := range list {
		if s.id != id {
			continue
		}
		b.subs[kind] = append(list[:i:i], list[i+1:]...)
		if len(b.subs[kind]) == 0 {
			delete(b.subs, kind)
		}
		return true
	}
	return false
}

// Count returns the number of subscriptions for kind.
func (b *Bus) Count(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}

// Publish delivers ev to every subscriber of its kind and waits for them.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev == nil {
		return
	}
	b.mu.RLock()
	list := append([]subscription(nil), b.subs[ev.Kind()]...)
	b.mu.RUnlock()
	if len(list) == 0 {
		return
	}

	var wg conc.WaitGroup
	for _, s := range list {
		wg.Go(func() {
			b.deliver(ctx, s, ev)
		})
	}
	wg.Wait()
}

func (b *Bus) deliver(ctx context.Context, s subscription, ev Event) {
	var pc panics.Catcher
	pc.Try(func() {
		if err := s.handler(ctx, ev); err != nil {
			b.logger.Warn("event handler failed",
				"kind", ev.Kind(), "workflow_id", ev.WorkflowID(),
				"subscription", s.id, "error", err)
		}
	})
	if r := pc.Recovered(); r != nil {
		b.logger.Error("event handler panicked",
			"kind", ev.Kind(), "workflow_id", ev.WorkflowID(),
			"subscription", s.id, "panic", r.Value)
	}
}
