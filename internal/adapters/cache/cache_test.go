package cache

import (
	"context"
	"testing"
	"time"

	"cargo-logistics-service/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exercise runs the behaviour every ports.Cache must share.
func exercise(t *testing.T, c ports.Cache, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))

	got, err = c.Take(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
	_, err = c.Take(ctx, "b")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	advance(2 * time.Minute)
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Minute))
	require.NoError(t, c.Set(ctx, "d", []byte("4"), time.Minute))
	require.NoError(t, c.Delete(ctx, "c", "d", "never-set"))
	_, err = c.Get(ctx, "d")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewRedisCache(rdb, "test:")
	exercise(t, c, mr.FastForward)

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	assert.True(t, mr.Exists("test:k"))
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Dial(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	_ = rdb.Close()

	mr.Close()
	_, err = Dial(context.Background(), mr.Addr(), "", 0)
	assert.Error(t, err)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	exercise(t, c, func(d time.Duration) { now = now.Add(d) })
}
