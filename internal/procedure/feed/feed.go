// Package feed delivers procedure change notifications to subscribers.
//
// Events carry identifiers and states only; subscribers re-query the procedure.
// Delivery is best effort: a subscriber that falls behind loses events and is
// expected to resynchronise by re-reading.
package feed

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"engageflow/internal/procedure/models"
)

const defaultSubscriptionBuffer = 64

// Publisher pushes change events to a backend.
type Publisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}

// Subscriber opens a stream of change events.
type Subscriber interface {
	Subscribe(ctx context.Context) (*Subscription, error)
}

// Subscription is a live stream of events. Close releases it; the channel is
// closed once the subscription ends for any reason.
type Subscription struct {
	events <-chan models.ChangeEvent
	once   sync.Once
	cancel func()
}

func newSubscription(events <-chan models.ChangeEvent, cancel func()) *Subscription {
	return &Subscription{events: events, cancel: cancel}
}

func (s *Subscription) Events() <-chan models.ChangeEvent {
	return s.events
}

func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Multi publishes every event to all backends concurrently.
type Multi struct {
	publishers []Publisher
}

func NewMulti(publishers ...Publisher) *Multi {
	return &Multi{publishers: publishers}
}

func (m *Multi) Publish(ctx context.Context, event models.ChangeEvent) error {
	g, gctx := errgroup.WithContext(ctx)
	errs := make([]error, len(m.publishers))
	for i, p := range m.publishers {
		g.Go(func() error {
			errs[i] = p.Publish(gctx, event)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
