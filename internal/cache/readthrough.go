package cache

import (
	"context"
	"encoding/json"
	"time"
)

// ReadThrough wraps an expensive read with cache retrieval and
// population. On a hit the cached JSON is decoded and returned
// without calling loader. On a miss — including a degraded or
// disconnected store — loader runs against the source of truth and,
// only if it succeeds, the result is stored best-effort before being
// returned. Loader errors propagate uncached.
func ReadThrough[T any](ctx context.Context, store Store, key string, ttl time.Duration, loader func(ctx context.Context) (T, error)) (T, error) {
	if raw, ok := store.Get(ctx, key); ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// Undecodable entry: treat as a miss and let the fresh
		// value overwrite it below.
	}

	fresh, err := loader(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if raw, err := json.Marshal(fresh); err == nil {
		store.Set(ctx, key, raw, ttl)
	}
	return fresh, nil
}
