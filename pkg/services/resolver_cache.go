package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/natty6418/task-flow-sub000/pkg/diff"
)

// cachedResolver decorates a resolver with a Redis TTL cache. Display
// names change rarely and diff builds resolve the same ids repeatedly,
// so a short-lived external cache cuts record-store reads while keeping
// the engine itself stateless and horizontally scalable. Expiry is
// enforced by the store, not by in-process timers.
type cachedResolver struct {
	next   diff.Resolver
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedResolver wraps next with a Redis TTL cache. A nil client
// returns next unchanged, so Redis stays optional.
func NewCachedResolver(next diff.Resolver, client *redis.Client, ttl time.Duration, logger *zap.Logger) diff.Resolver {
	if client == nil {
		return next
	}
	return &cachedResolver{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Named("resolver-cache"),
	}
}

func (r *cachedResolver) Resolve(ctx context.Context, kind diff.ReferenceKind, id string) (string, error) {
	key := cacheKey(kind, id)

	name, err := r.client.Get(ctx, key).Result()
	if err == nil {
		return name, nil
	}
	if err != redis.Nil {
		// Cache trouble must not fail resolution; fall through to the store.
		r.logger.Debug("resolver cache read failed", zap.String("key", key), zap.Error(err))
	}

	name, err = r.next.Resolve(ctx, kind, id)
	if err != nil {
		return "", err
	}

	if err := r.client.Set(ctx, key, name, r.ttl).Err(); err != nil {
		r.logger.Debug("resolver cache write failed", zap.String("key", key), zap.Error(err))
	}
	return name, nil
}

func cacheKey(kind diff.ReferenceKind, id string) string {
	return fmt.Sprintf("taskflow:name:%s:%s", kind, id)
}
