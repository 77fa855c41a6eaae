package stream

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEmission[T any](t *testing.T, ch <-chan Emission[T]) Emission[T] {
	t.Helper()
	select {
	case em, ok := <-ch:
		require.True(t, ok, "观察流不应提前关闭")
		return em
	case <-time.After(time.Second):
		t.Fatal("等待发射超时")
		return Emission[T]{}
	}
}

func TestWatchEmitsInitialQueryResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()

	ch := Watch(ctx, h, []string{"pokemons"}, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	em := recvEmission(t, ch)
	require.NoError(t, em.Err)
	assert.Equal(t, 42, em.Value)
}

func TestWatchRequeriesOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()

	var counter atomic.Int64
	ch := Watch(ctx, h, []string{"pokemons"}, func(ctx context.Context) (int64, error) {
		return counter.Add(1), nil
	})

	em := recvEmission(t, ch)
	assert.Equal(t, int64(1), em.Value)

	h.Publish("pokemons")
	em = recvEmission(t, ch)
	assert.Equal(t, int64(2), em.Value)
}

func TestWatchPropagatesQueryError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()

	ch := Watch(ctx, h, []string{"pokemons"}, func(ctx context.Context) (int, error) {
		return 0, assert.AnError
	})

	em := recvEmission(t, ch)
	assert.ErrorIs(t, em.Err, assert.AnError)
}

func TestWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()

	ch := Watch(ctx, h, []string{"pokemons"}, func(ctx context.Context) (int, error) {
		return 0, nil
	})
	recvEmission(t, ch)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "取消后观察流应当关闭")
	case <-time.After(time.Second):
		t.Fatal("取消后观察流未关闭")
	}
}
