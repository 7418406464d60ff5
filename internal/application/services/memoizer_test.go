package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/dashboard-cache/internal/application/services"
	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/memory"
	"github.com/avatarctic/dashboard-cache/internal/mocks"
)

type series struct {
	Name   string
	Points []float64
}

func newMemory(t *testing.T) *memory.Cache {
	t.Helper()
	c, err := memory.New(cache.Config{KeyPrefix: "app"}, memory.WithSweepInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRemember_CachesLoaderResult(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)
	m := impl.NewMemoizer(c, nil)

	calls := 0
	load := func(ctx context.Context) (series, error) {
		calls++
		return series{Name: "revenue", Points: []float64{1, 2}}, nil
	}

	v, err := impl.Remember(ctx, m, "revenue", load, cache.WithTags("sales"))
	require.NoError(t, err)
	require.Equal(t, "revenue", v.Name)

	v, err = impl.Remember(ctx, m, "revenue", load)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, v.Points)
	require.Equal(t, 1, calls)

	require.NoError(t, m.Invalidate(ctx, "sales"))
	_, err = impl.Remember(ctx, m, "revenue", load)
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	require.NoError(t, m.Forget(ctx, "revenue"))
	_, err = impl.Remember(ctx, m, "revenue", load)
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRemember_LoaderErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)
	m := impl.NewMemoizer(c, nil)

	boom := errors.New("warehouse down")
	_, err := impl.Remember(ctx, m, "k", func(ctx context.Context) (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	ok, err := c.Has(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemember_CoalescesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	m := impl.NewMemoizer(newMemory(t), nil)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := impl.Remember(ctx, m, "slow", load)
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		require.Equal(t, 42, v)
	}
}

func TestRemember_CacheFailuresDoNotFailCall(t *testing.T) {
	ctx := context.Background()
	broken := &mocks.CacheMock{
		GetFn: func(ctx context.Context, key string, dst any) (bool, error) { return false, cache.ErrTypeMismatch },
		SetFn: func(ctx context.Context, key string, value any, opts ...cache.SetOption) error {
			return cache.ErrUnavailable
		},
	}
	m := impl.NewMemoizer(broken, nil)

	v, err := impl.Remember(ctx, m, "k", func(ctx context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	require.Equal(t, "fresh", v)
}

func TestMemoizerKey(t *testing.T) {
	m := impl.NewMemoizer(&mocks.CacheMock{}, nil)
	require.Equal(t, "widgets", m.Key("widgets"))

	k := m.Key("forecast", "region=eu", "horizon=30d")
	require.Equal(t, k, m.Key("forecast", "region=eu", "horizon=30d"))
	require.NotEqual(t, k, m.Key("forecast", "region=us", "horizon=30d"))
	require.Contains(t, k, "forecast:")
}
