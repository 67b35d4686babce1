// Package cache provides a small JSON value cache with Redis and in-memory
// drivers.
package cache

import (
	"context"
	"time"
)

// Store is the cache contract. A miss, an expired key and a decode failure
// all report false from Get.
type Store interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Forget(ctx context.Context, keys ...string) error
}

// Remember returns the cached value for key, or calls load, caches its
// result for ttl and returns it.
func Remember[T any](ctx context.Context, s Store, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var v T
	if s != nil && s.Get(ctx, key, &v) {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if s != nil && ttl > 0 {
		_ = s.Set(ctx, key, v, ttl)
	}
	return v, nil
}
