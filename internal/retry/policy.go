// Package retry implements canopy's backoff policy for retryable AI
// backend calls. Only core.ErrCatRateLimit is ever retryable (spec.md
// §4.3); every other category fails the call on the first attempt.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/canopy-docs/canopy/internal/core"
)

// Policy controls exponential backoff with additive jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultPolicy matches spec.md §4.3's defaults for rate-limited calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// jitterCeiling bounds the additive uniform jitter added on top of the
// capped exponential delay (spec.md §4.3: delay = min(base*mult^n,max) +
// uniform(0,500ms)).
const jitterCeiling = 500 * time.Millisecond

// CalculateDelay returns the wait before retrying attempt n (1-indexed:
// the delay before the 2nd attempt is CalculateDelay(1)).
func (p Policy) CalculateDelay(attempt int) time.Duration {
	raw := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if raw > float64(p.MaxDelay) {
		raw = float64(p.MaxDelay)
	}
	jitter := time.Duration(rand.Int63n(int64(jitterCeiling)))
	return time.Duration(raw) + jitter
}

// Func is retried by Execute.
type Func func(ctx context.Context) error

// NotifyFunc is invoked before each wait between attempts.
type NotifyFunc func(attempt int, err error, delay time.Duration)

// Execute runs fn, retrying on core.IsRetryable errors up to MaxAttempts,
// waiting CalculateDelay between attempts unless the context is
// cancelled first. Non-retryable errors return immediately.
func (p Policy) Execute(ctx context.Context, fn Func) error {
	return p.ExecuteWithNotify(ctx, fn, nil)
}

// ExecuteWithNotify is Execute with an optional per-retry notification
// hook, used by internal/aicall to log each retry attempt.
func (p Policy) ExecuteWithNotify(ctx context.Context, fn Func, notify NotifyFunc) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !core.IsRetryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.CalculateDelay(attempt)
		if notify != nil {
			notify(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &ExhaustedError{Attempts: p.MaxAttempts, LastErr: lastErr}
}

// ExhaustedError reports that every retry attempt failed.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// IsExhausted reports whether err is an ExhaustedError.
func IsExhausted(err error) bool {
	_, ok := err.(*ExhaustedError)
	return ok
}

var rateLimitPattern = regexp.MustCompile(`(?i)rate.?limit|too many requests|429|quota exceeded|resource_exhausted`)

// DetectRateLimit scans a backend's raw stderr for phrases indicating a
// rate limit, since several backends report this as a non-zero exit with
// a human-readable message rather than a distinguishable exit code.
func DetectRateLimit(stderr string) bool {
	return rateLimitPattern.MatchString(strings.TrimSpace(stderr))
}
