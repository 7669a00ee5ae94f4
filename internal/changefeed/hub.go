// Package changefeed distributes committed lead and message changes to live
// subscribers. Delivery is at-most-once with no replay: a subscriber sees the
// events published while it is connected, in publish order, or is evicted.
package changefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"basegraph.app/leads/common/logger"
	"basegraph.app/leads/internal/model"
)

var (
	// ErrSubscriberLagged ends a subscription whose queue filled up. The
	// subscriber must re-seed its state before subscribing again.
	ErrSubscriberLagged = errors.New("subscriber fell behind and was evicted")
	ErrHubClosed        = errors.New("change feed is closed")
)

const DefaultBuffer = 64

// Publisher hands a committed change to the feed.
type Publisher interface {
	Publish(ctx context.Context, event model.ChangeEvent) error
}

// Filter selects events for a subscription. The zero Filter matches every
// event.
type Filter struct {
	Entity model.EntityKind
	LeadID *int64
}

func (f Filter) Match(e model.ChangeEvent) bool {
	if f.Entity != "" && f.Entity != e.Entity {
		return false
	}
	if f.LeadID != nil && *f.LeadID != e.LeadID {
		return false
	}
	return true
}

// Subscription is one live observer. Events is closed when the subscription
// ends; Err then reports why.
type Subscription struct {
	id     string
	filter Filter
	events chan model.ChangeEvent
	done   chan struct{}
	hub    *Hub

	// guarded by hub.mu
	closed bool
	err    error
}

func (s *Subscription) ID() string { return s.id }

func (s *Subscription) Events() <-chan model.ChangeEvent { return s.events }

// Done is closed together with Events.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err is nil while the subscription is live or after the subscriber closed
// it; otherwise ErrSubscriberLagged or ErrHubClosed.
func (s *Subscription) Err() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.err
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.remove(s, nil)
}

// Hub is the in-process subscriber registry.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]*Subscription
	buffer  int
	closed  bool
	metrics *Metrics
}

// NewHub creates a hub whose subscribers queue at most buffer events.
// metrics may be nil.
func NewHub(buffer int, metrics *Metrics) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:    make(map[string]*Subscription),
		buffer:  buffer,
		metrics: metrics,
	}
}

func (h *Hub) Subscribe(filter Filter) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	sub := &Subscription{
		id:     uuid.NewString(),
		filter: filter,
		events: make(chan model.ChangeEvent, h.buffer),
		done:   make(chan struct{}),
		hub:    h,
	}
	h.subs[sub.id] = sub
	h.metrics.setSubscribers(len(h.subs))
	return sub, nil
}

// Publish delivers event to every matching subscriber without blocking.
// A subscriber with a full queue is evicted rather than skipped, so no
// subscriber ever observes a silent gap.
func (h *Hub) Publish(ctx context.Context, event model.ChangeEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid change event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	h.metrics.published(event)
	for _, sub := range h.subs {
		if !sub.filter.Match(event) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			h.remove(sub, ErrSubscriberLagged)
			h.metrics.evicted()
			slog.WarnContext(logger.WithLogFields(ctx, logger.LogFields{
				SubscriptionID: logger.Ptr(sub.id),
				ChangeKind:     logger.Ptr(event.Kind()),
			}), "evicted lagging change feed subscriber", "buffer", h.buffer)
		}
	}
	return nil
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription with ErrHubClosed and rejects further use.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, sub := range h.subs {
		h.remove(sub, ErrHubClosed)
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(sub *Subscription, reason error) {
	if sub.closed {
		return
	}
	sub.closed = true
	sub.err = reason
	delete(h.subs, sub.id)
	close(sub.events)
	close(sub.done)
	h.metrics.setSubscribers(len(h.subs))
}
