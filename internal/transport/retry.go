package transport

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Errors that mark a failure as worth another attempt.
var (
	ErrRetryable = &deskerr.DeskError{
		Code:     "RETRYABLE",
		Message:  "transient failure",
		ExitCode: deskerr.ExitGeneral,
	}

	ErrRateLimited = &deskerr.DeskError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited by upstream",
		ExitCode: deskerr.ExitGeneral,
	}
)

const (
	defaultAttempts  = 4
	defaultBaseDelay = 500 * time.Millisecond
	defaultMaxDelay  = 2 * time.Second

	// maxServerWait caps a Retry-After hint so a CLI call never stalls for long.
	maxServerWait = 10 * time.Second

	maxShift = 30
)

// RetryConfig bounds Retry. Delays double from BaseDelay up to MaxDelay.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig allows 4 attempts with delays of roughly 0.5s, 1s, 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: defaultAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

// waitError carries a server-requested delay before the next attempt.
type waitError struct {
	err  error
	wait time.Duration
}

func (e *waitError) Error() string { return e.err.Error() }

func (e *waitError) Unwrap() error { return e.err }

// RetryAfter marks err retryable and asks Retry to wait at least wait, capped
// at ten seconds, before the next attempt. The error text and chain of err
// are unchanged.
func RetryAfter(err error, wait time.Duration) error {
	if err == nil {
		return nil
	}
	return &waitError{err: err, wait: min(max(wait, 0), maxServerWait)}
}

// WrapRetryable marks err retryable.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}

// IsRetryable reports whether err was marked retryable, was rate limited,
// or is a deadline expiry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var we *waitError
	return errors.As(err, &we) ||
		errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Retry runs op until it succeeds, fails with a non-retryable error, or runs
// out of attempts. It stops early when ctx ends.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	attempts := max(cfg.MaxAttempts, 1)

	var (
		result T
		err    error
	)
	for attempt := range attempts {
		if result, err = op(); err == nil || !IsRetryable(err) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}
		if sleepErr := Sleep(ctx, nextDelay(attempt, cfg, err)); sleepErr != nil {
			return result, sleepErr
		}
	}
	return result, fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}

func nextDelay(attempt int, cfg RetryConfig, err error) time.Duration {
	d := Backoff(attempt, cfg.BaseDelay, cfg.MaxDelay)
	var we *waitError
	if errors.As(err, &we) {
		d = max(d, we.wait)
	}
	return d
}

// Backoff returns a jittered delay in [d/2, d) where d is base doubled per
// attempt and capped at ceiling.
func Backoff(attempt int, base, ceiling time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base << min(max(attempt, 0), maxShift)
	if d <= 0 || (ceiling > 0 && d > ceiling) {
		d = ceiling
	}
	if d < 2 {
		return d
	}
	return d/2 + rand.N(d/2) //nolint:gosec // G404: jitter does not require cryptographic randomness
}

// Sleep waits for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseRetryAfter reads a Retry-After header given as seconds or an HTTP
// date. Unparseable or past values yield zero.
func ParseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(max(seconds, 0)) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		return max(time.Until(at), 0)
	}
	return 0
}
