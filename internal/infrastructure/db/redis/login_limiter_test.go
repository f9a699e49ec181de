package redis

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*LoginLimiter, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginLimiter(client, max, window), m
}

func TestLoginLimiter_BlocksAfterMaxAttempts(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, l.RecordFailure(ctx, "a@x.com"))
	}
	blocked, err := l.Blocked(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, blocked)

	require.NoError(t, l.RecordFailure(ctx, "A@X.com "))
	blocked, err = l.Blocked(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, blocked, "email should be normalized into the same key")

	other, err := l.Blocked(ctx, "b@x.com")
	require.NoError(t, err)
	require.False(t, other)
}

func TestLoginLimiter_WindowExpires(t *testing.T) {
	l, m := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.RecordFailure(ctx, "a@x.com"))
	blocked, err := l.Blocked(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, blocked)

	m.FastForward(2 * time.Minute)

	blocked, err = l.Blocked(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, blocked)
}

func TestLoginLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.RecordFailure(ctx, "a@x.com"))
	require.NoError(t, l.Reset(ctx, "a@x.com"))

	blocked, err := l.Blocked(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, blocked)
}

func TestLoginLimiter_Defaults(t *testing.T) {
	l := NewLoginLimiter(nil, 0, 0)
	require.Equal(t, int64(defaultMaxAttempts), l.maxAttempts)
	require.Equal(t, defaultWindow, l.window)
}
