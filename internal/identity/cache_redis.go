package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "engageflow/pkg/domain"
)

const (
	userKeyPrefix   = "engageflow:user:"
	defaultCacheTTL = 5 * time.Minute
)

// RedisCachedDirectory fronts another Directory with a read-through Redis cache.
// Saves write through and invalidate the cached entry.
type RedisCachedDirectory struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type CacheOption func(*RedisCachedDirectory)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *RedisCachedDirectory) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *RedisCachedDirectory) {
		c.logger = logger
	}
}

func NewRedisCachedDirectory(next Directory, client *redis.Client, opts ...CacheOption) *RedisCachedDirectory {
	c := &RedisCachedDirectory{
		next:   next,
		client: client,
		ttl:    defaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCachedDirectory) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	key := userKeyPrefix + userID.String()
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var u User
		if jsonErr := json.Unmarshal(raw, &u); jsonErr == nil {
			return &u, nil
		}
		c.logger.WarnContext(ctx, "discarding unreadable cached user", "user_id", userID.String())
	case !errors.Is(err, redis.Nil):
		// Cache outages degrade to the backing directory.
		c.logger.WarnContext(ctx, "user cache read failed", "error", err)
	}

	u, err := c.next.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(u); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "user cache write failed", "error", err)
		}
	}
	return u, nil
}

func (c *RedisCachedDirectory) Save(ctx context.Context, user *User) error {
	if err := c.next.Save(ctx, user); err != nil {
		return err
	}
	if err := c.client.Del(ctx, userKeyPrefix+user.ID.String()).Err(); err != nil {
		c.logger.WarnContext(ctx, "user cache invalidation failed", "error", err)
	}
	return nil
}
