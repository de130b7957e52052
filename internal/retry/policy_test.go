package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canopy-docs/canopy/internal/core"
	"github.com/stretchr/testify/require"
)

func TestCalculateDelay_CapsAtMax(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2.0}
	d := p.CalculateDelay(10)
	require.LessOrEqual(t, d, 3*time.Second+jitterCeiling)
	require.GreaterOrEqual(t, d, 3*time.Second)
}

func TestCalculateDelay_AddsJitterWithinBound(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}
	for i := 0; i < 20; i++ {
		d := p.CalculateDelay(1)
		require.GreaterOrEqual(t, d, 200*time.Millisecond)
		require.Less(t, d, 200*time.Millisecond+jitterCeiling)
	}
}

func TestExecute_SucceedsFirstTry(t *testing.T) {
	p := DefaultPolicy()
	calls := 0
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestExecute_NonRetryableFailsImmediately(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	calls := 0
	wantErr := core.ErrParse("bad json")
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 1, calls)
}

func TestExecute_RetriesRateLimitUntilExhausted(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	calls := 0
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return core.ErrRateLimit("slow down")
	})
	require.Error(t, err)
	require.True(t, IsExhausted(err))
	require.Equal(t, 3, calls)
}

func TestExecute_RetriesThenSucceeds(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	calls := 0
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return core.ErrRateLimit("slow down")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestExecute_ContextCancelled(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Execute(ctx, func(ctx context.Context) error {
		return core.ErrRateLimit("slow down")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExhaustedError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &ExhaustedError{Attempts: 3, LastErr: cause}
	require.ErrorIs(t, err, cause)
	require.True(t, IsExhausted(err))
}

func TestDetectRateLimit(t *testing.T) {
	require.True(t, DetectRateLimit("Error: rate limit exceeded, retry later"))
	require.True(t, DetectRateLimit("HTTP 429 Too Many Requests"))
	require.True(t, DetectRateLimit("RESOURCE_EXHAUSTED: quota exceeded"))
	require.False(t, DetectRateLimit("permission denied"))
	require.False(t, DetectRateLimit(""))
}
