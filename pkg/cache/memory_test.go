package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache(10)
	ctx := context.Background()

	type payload struct {
		Symbol string  `json:"symbol"`
		Score  float64 `json:"score"`
	}

	require.NoError(t, mc.Set(ctx, "k", payload{Symbol: "BIAT", Score: 0.42}, time.Minute))

	var got payload
	require.NoError(t, mc.Get(ctx, "k", &got))
	require.Equal(t, "BIAT", got.Symbol)
	require.Equal(t, 0.42, got.Score)
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache(10)

	var got string
	err := mc.Get(context.Background(), "absent", &got)
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	require.ErrorIs(t, mc.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCacheEviction(t *testing.T) {
	mc := NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, mc.Set(ctx, "b", 2, 2*time.Minute))
	require.NoError(t, mc.Set(ctx, "c", 3, 3*time.Minute))

	var got int
	require.ErrorIs(t, mc.Get(ctx, "a", &got), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "b", &got))
	require.NoError(t, mc.Get(ctx, "c", &got))
}

func TestKey(t *testing.T) {
	require.Equal(t, "forecast:BIAT", Key("forecast", "BIAT"))
	require.Equal(t, "validate:BIAT:42", Key("validate", "BIAT", 42))
}
