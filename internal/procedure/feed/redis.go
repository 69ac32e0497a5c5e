package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"engageflow/internal/procedure/models"
)

// RedisFeed publishes change events on a Redis pub/sub channel and lets any
// server instance subscribe to them.
type RedisFeed struct {
	client  *redis.Client
	channel string
	buffer  int
	logger  *slog.Logger
}

type RedisOption func(*RedisFeed)

func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(f *RedisFeed) {
		f.logger = logger
	}
}

func NewRedis(client *redis.Client, channel string, opts ...RedisOption) *RedisFeed {
	f := &RedisFeed{
		client:  client,
		channel: channel,
		buffer:  defaultSubscriptionBuffer,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *RedisFeed) Publish(ctx context.Context, event models.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Subscribe waits for the subscription to be confirmed before returning, so
// events published afterwards are not missed.
func (f *RedisFeed) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := f.client.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan models.ChangeEvent, f.buffer)
	go func() {
		defer close(out)
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					f.logger.WarnContext(ctx, "discarding malformed change event", "error", err)
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()
	return newSubscription(out, cancel), nil
}
