package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("still broken")
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return sentinel
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, sentinel)
}

func TestDo_UnrecoverableStopsImmediately(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return Unrecoverable(sentinel)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	// The wrapper is stripped on return.
	assert.Equal(t, sentinel, err)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), func() error {
		return errors.New("should not matter")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_MaxTotalTimeout(t *testing.T) {
	cfg := Config{
		MaxAttempts:     100,
		InitialDelay:    10 * time.Millisecond,
		MaxDelay:        10 * time.Millisecond,
		BackoffFactor:   1.0,
		MaxTotalTimeout: 25 * time.Millisecond,
	}

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return errors.New("slow failure")
	})
	require.Error(t, err)
	assert.Less(t, calls, 100)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsUnrecoverable(t *testing.T) {
	assert.True(t, IsUnrecoverable(Unrecoverable(errors.New("x"))))
	assert.False(t, IsUnrecoverable(errors.New("x")))
}

func TestDoWithLog_LogsEachRetry(t *testing.T) {
	var attempts []int
	err := DoWithLog(context.Background(), fastConfig(), "schedule", func() error {
		return errors.New("transient")
	}, func(attempt int, err error, nextDelay time.Duration) {
		attempts = append(attempts, attempt)
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
	assert.Contains(t, err.Error(), "schedule: ")
}
