package feed

import (
	"context"
	"sync"
	"sync/atomic"

	"engageflow/internal/procedure/models"
)

// Broker is an in-process fan-out used when a single server instance serves
// every subscriber.
type Broker struct {
	mu      sync.RWMutex
	subs    map[uint64]chan models.ChangeEvent
	nextID  uint64
	buffer  int
	dropped atomic.Uint64
}

type BrokerOption func(*Broker)

func WithBuffer(n int) BrokerOption {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		subs:   make(map[uint64]chan models.ChangeEvent),
		buffer: defaultSubscriptionBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish never blocks; subscribers with a full buffer miss the event.
func (b *Broker) Publish(_ context.Context, event models.ChangeEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx ends or the subscription is closed.
func (b *Broker) Subscribe(ctx context.Context) (*Subscription, error) {
	ch := make(chan models.ChangeEvent, b.buffer)

	b.mu.Lock()
	subID := b.nextID
	b.nextID++
	b.subs[subID] = ch
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, subID)
		close(ch)
		b.mu.Unlock()
	}()
	return newSubscription(ch, cancel), nil
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
