package cache

import (
	"context"
	"fmt"
)

// Typed adapts a typed fetch function to a Fetcher.
func Typed[T any](fetch func(ctx context.Context) (T, error)) Fetcher {
	return func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		return v, err
	}
}

// Get is Fetch with a typed result.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, Typed(fetch))
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T, want %T", key, v, zero)
	}
	return t, nil
}

// Watch is Subscribe with a typed fetch function.
func Watch[T any](c *Cache, key Key, fetch func(ctx context.Context) (T, error)) *Subscription {
	return c.Subscribe(key, Typed(fetch))
}

// Value extracts typed data from a state. ok is false when nothing is cached
// or the data has another type.
func Value[T any](st State) (T, bool) {
	t, ok := st.Data.(T)
	return t, ok
}
