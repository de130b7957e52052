package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_Process_PreservesOrder(t *testing.T) {
	p := NewPool[int](4)
	items := []string{"3", "1", "4", "1", "5"}

	results := p.Process(context.Background(), items, func(ctx context.Context, s string) (int, error) {
		return len(s), nil
	}, nil)

	require.Len(t, results, 5)
	for i, r := range results {
		require.Equal(t, i, r.Index)
		require.NoError(t, r.Err)
	}
}

func TestPool_Process_Empty(t *testing.T) {
	p := NewPool[int](4)
	results := p.Process(context.Background(), nil, func(ctx context.Context, s string) (int, error) {
		return 0, nil
	}, nil)
	require.Nil(t, results)
}

func TestPool_Process_CapturesPerItemError(t *testing.T) {
	p := NewPool[string](2)
	items := []string{"ok", "bad", "ok"}

	results := p.Process(context.Background(), items, func(ctx context.Context, s string) (string, error) {
		if s == "bad" {
			return "", errors.New("boom")
		}
		return s, nil
	}, nil)

	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	require.NoError(t, results[2].Err)
}

func TestPool_Process_OnCompleteFiresPerItem(t *testing.T) {
	p := NewPool[int](3)
	items := []string{"a", "b", "c"}
	var calls atomic.Int32

	p.Process(context.Background(), items, func(ctx context.Context, s string) (int, error) {
		return 1, nil
	}, func(index int, value int, err error) {
		calls.Add(1)
	})

	require.Equal(t, int32(3), calls.Load())
}

func TestPool_Process_ContextCancelled(t *testing.T) {
	p := NewPool[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []string{"a", "b"}
	results := p.Process(ctx, items, func(ctx context.Context, s string) (int, error) {
		return 1, nil
	}, nil)

	for _, r := range results {
		require.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestPool_Process_FailFastAbortsRemaining(t *testing.T) {
	p := NewPool[int](1, WithFailFast[int](true))
	items := []string{"fail", "a", "b", "c"}

	results := p.Process(context.Background(), items, func(ctx context.Context, s string) (int, error) {
		if s == "fail" {
			return 0, errors.New("boom")
		}
		return 1, nil
	}, nil)

	require.Error(t, results[0].Err)
	for _, r := range results[1:] {
		require.Error(t, r.Err)
	}
}

func TestNewPool_DefaultsConcurrency(t *testing.T) {
	p := NewPool[int](0)
	require.Greater(t, p.concurrency, 0)
}
