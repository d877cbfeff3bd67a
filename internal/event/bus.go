package event

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dshills/glossa/internal/event/topic"
)

// Handler processes one event. A returned error is logged by the bus.
type Handler func(ctx context.Context, ev Event) error

// SubscriptionID identifies a subscription for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	pattern topic.Topic
	handler Handler
}

// Stats holds delivery counters.
type Stats struct {
	Published uint64
	Delivered uint64
	Errors    uint64
	Panics    uint64
}

// Bus is a synchronous publish/subscribe hub keyed by topic patterns.
// It is safe for concurrent use; handlers run on the publisher's goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	nextID SubscriptionID
	logger *slog.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	errors    atomic.Uint64
	panics    atomic.Uint64
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report handler failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "event")
	return b
}

// Subscribe registers h for every topic matching pattern.
func (b *Bus) Subscribe(pattern topic.Topic, h Handler) (SubscriptionID, error) {
	if !pattern.IsValid() {
		return 0, ErrInvalidTopic
	}
	if h == nil {
		return 0, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs = append(b.subs, &subscription{id: b.nextID, pattern: pattern, handler: h})
	return b.nextID, nil
}

// Unsubscribe removes a subscription. It reports whether it existed.
func (b *Bus) Unsubscribe(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers ev to every matching handler and returns the number of
// handlers that completed without error.
func (b *Bus) Publish(ctx context.Context, ev Event) int {
	if b == nil || !ev.Topic.IsValid() || ev.Topic.IsWildcard() {
		return 0
	}
	b.published.Add(1)

	b.mu.RLock()
	var matched []*subscription
	for _, s := range b.subs {
		if ev.Topic.Matches(s.pattern) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	ok := 0
	for _, s := range matched {
		if err := b.deliver(ctx, s, ev); err != nil {
			b.logger.Warn("event handler failed",
				"topic", ev.Topic.String(),
				"pattern", s.pattern.String(),
				"error", err)
			continue
		}
		ok++
	}
	b.delivered.Add(uint64(ok))
	return ok
}

func (b *Bus) deliver(ctx context.Context, s *subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			err = &PanicError{Topic: ev.Topic.String(), Value: r}
		}
	}()
	if err = s.handler(ctx, ev); err != nil {
		b.errors.Add(1)
	}
	return err
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Stats returns a snapshot of the delivery counters.
func (b *Bus) Stats() Stats {
	if b == nil {
		return Stats{}
	}
	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Errors:    b.errors.Load(),
		Panics:    b.panics.Load(),
	}
}
