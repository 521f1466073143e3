package transport

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPermanent = errors.New("permanent")

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetry_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	attempts := 0
	result, err := Retry(context.Background(), fastRetry(), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", WrapRetryable(errPermanent)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := Retry(context.Background(), fastRetry(), func() (int, error) {
		attempts++
		return 0, errPermanent
	})

	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, attempts)
}

func TestRetry_Exhausted(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := Retry(context.Background(), fastRetry(), func() (int, error) {
		attempts++
		return 0, ErrRateLimited
	})

	require.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestRetry_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	attempts := 0
	_, err := Retry(ctx, cfg, func() (int, error) {
		attempts++
		cancel()
		return 0, ErrRetryable
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	for attempt := range 6 {
		d := Backoff(attempt, 100*time.Millisecond, 800*time.Millisecond)
		upper := min(100*time.Millisecond*(1<<attempt), 800*time.Millisecond)
		assert.GreaterOrEqual(t, d, upper/2)
		assert.Less(t, d, upper)
	}

	assert.Equal(t, time.Duration(0), Backoff(3, 0, time.Second))
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errPermanent))
	assert.True(t, IsRetryable(ErrRetryable))
	assert.True(t, IsRetryable(WrapRetryable(errPermanent)))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.NoError(t, WrapRetryable(nil))
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3*time.Second, ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-1"))

	at := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	d := ParseRetryAfter(at)
	assert.Greater(t, d, 58*time.Minute)
	assert.LessOrEqual(t, d, time.Hour)

	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	assert.Equal(t, time.Duration(0), ParseRetryAfter(past))
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	assert.NoError(t, RetryAfter(nil, time.Second))

	err := RetryAfter(errPermanent, 20*time.Millisecond)
	assert.True(t, IsRetryable(err))
	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, errPermanent.Error(), err.Error())
	assert.False(t, errors.Is(err, ErrRateLimited))

	cfg := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	assert.Equal(t, 20*time.Millisecond, nextDelay(0, cfg, err))
	assert.Equal(t, maxServerWait, nextDelay(0, cfg, RetryAfter(errPermanent, time.Hour)))

	calls := 0
	start := time.Now()
	_, retryErr := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		if calls == 1 {
			return 0, err
		}
		return 1, nil
	})
	require.NoError(t, retryErr)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	// Endpoints have independent buckets
	assert.True(t, rl.Allow("b"))

	unlimited := NewRateLimiter(0, 0)
	for range 100 {
		require.True(t, unlimited.Allow("x"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, DefaultRateLimiter().Wait(ctx, "c"))

	canceled, stop := context.WithCancel(context.Background())
	stop()
	err := NewRateLimiter(1, 1).Wait(canceled, "backend")
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "backend")
}
