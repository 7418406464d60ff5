package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
)

func TestSweep_RemovesOnlyExpiredEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c, err := New(cache.Config{}, WithSweepInterval(0), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "short", 1, cache.WithTTL(time.Second)))
	require.NoError(t, c.Set(ctx, "long", 2, cache.WithTTL(time.Hour)))
	require.NoError(t, c.Set(ctx, "forever", 3))

	now = now.Add(time.Minute)
	assert.Equal(t, 1, c.sweep())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(1), c.Stats(ctx).Deletes)

	_, ok := c.items.Peek("short")
	assert.False(t, ok)
	assert.NotContains(t, c.items.Keys(), "short")
}

func TestSweep_BackgroundTaskPurgesAndStops(t *testing.T) {
	ctx := context.Background()
	c, err := New(cache.Config{}, WithSweepInterval(5*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k", "v", cache.WithTTL(time.Millisecond)))
	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	select {
	case <-c.done:
	default:
		t.Fatal("sweep goroutine still running after Close")
	}
}

func TestAssign_ConvertsNamedTypes(t *testing.T) {
	type celsius float64
	var dst celsius
	require.NoError(t, assign(&dst, 21.5))
	assert.Equal(t, celsius(21.5), dst)

	var n int
	require.ErrorIs(t, assign(&n, "21"), cache.ErrTypeMismatch)

	n = 5
	require.NoError(t, assign(&n, nil))
	assert.Zero(t, n)
}

func TestDeepCopy_RejectsCycles(t *testing.T) {
	type node struct {
		Next *node
	}
	n := &node{}
	n.Next = n
	_, err := deepCopy(n)
	require.ErrorIs(t, err, cache.ErrUnsupportedValue)

	m := map[string]any{}
	m["self"] = m
	_, err = deepCopy(m)
	require.ErrorIs(t, err, cache.ErrUnsupportedValue)

	s := []any{"a", nil}
	s[1] = s
	_, err = deepCopy(s)
	require.ErrorIs(t, err, cache.ErrUnsupportedValue)

	nested := map[string]any{"inner": []any{nil}}
	nested["inner"].([]any)[0] = nested
	_, err = deepCopy(nested)
	require.ErrorIs(t, err, cache.ErrUnsupportedValue)

	shared := &node{}
	_, err = deepCopy([]*node{shared, shared})
	require.NoError(t, err)

	sharedMap := map[string]int{"a": 1}
	_, err = deepCopy([]any{sharedMap, sharedMap})
	require.NoError(t, err)

	backing := []any{1, 2, 3}
	_, err = deepCopy([]any{backing, backing[:2]})
	require.NoError(t, err)
}
