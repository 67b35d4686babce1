package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var got map[string]int
	require.True(t, s.Get(ctx, "k", &got))
	assert.Equal(t, 1, got["a"])

	now = now.Add(2 * time.Minute)
	assert.False(t, s.Get(ctx, "k", &got))
}

func TestMemoryStoreForget(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "a", 1, 0))
	require.NoError(t, s.Set(ctx, "b", 2, 0))

	require.NoError(t, s.Forget(ctx, "a", "b"))

	var v int
	assert.False(t, s.Get(ctx, "a", &v))
	assert.False(t, s.Get(ctx, "b", &v))
}

func TestRememberLoadsOnceUntilForgotten(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"Laptop"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Remember(ctx, s, "products", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop"}, v)
	}
	assert.Equal(t, 1, calls)

	require.NoError(t, s.Forget(ctx, "products"))
	_, err := Remember(ctx, s, "products", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRememberPropagatesLoadError(t *testing.T) {
	_, err := Remember(context.Background(), NewMemoryStore(), "k", time.Minute, func() (int, error) {
		return 0, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
}

func TestRememberWithNilStore(t *testing.T) {
	v, err := Remember[int](context.Background(), nil, "k", time.Minute, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
