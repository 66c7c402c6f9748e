package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ===============================
// CACHE LOADER
// ===============================

// Loader fills cache misses once per key even under concurrent requests.
type Loader struct {
	cache  Cache
	group  singleflight.Group
	logger *zap.Logger
}

func NewLoader(cache Cache, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{cache: cache, logger: logger}
}

// Cache returns the underlying cache.
func (l *Loader) Cache() Cache {
	return l.cache
}

// Invalidate removes exact keys or, when a key ends with *, a pattern.
func (l *Loader) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		var err error
		if len(key) > 0 && key[len(key)-1] == '*' {
			err = l.cache.DeletePattern(ctx, key)
		} else {
			err = l.cache.Delete(ctx, key)
		}
		if err != nil {
			l.logger.Warn("Failed to invalidate cache key", zap.String("key", key), zap.Error(err))
		}
	}
}

// Remember returns the cached value for key or calls fn and stores its result.
// Cache failures are logged and never fail the call.
func Remember[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if GetJSON(ctx, l.cache, key, &cached) {
		l.logger.Debug("Cache hit", zap.String("key", key))
		return cached, nil
	}

	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		result, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		if cacheErr := SetJSON(ctx, l.cache, key, result, ttl); cacheErr != nil {
			l.logger.Warn("Failed to cache result",
				zap.String("key", key),
				zap.Error(cacheErr),
			)
		}
		return result, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	result, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache loader: unexpected type %T for key %s", v, key)
	}
	return result, nil
}
