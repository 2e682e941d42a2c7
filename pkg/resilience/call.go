package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/tinysteps/report-service/pkg/retry"
)

// Outcome is the result of one resilient call. Exactly one of Value and Err
// is meaningful; NotFound is reported as a degraded outcome rather than an
// error so callers can substitute fallbacks without unwrapping.
type Outcome[T any] struct {
	Value    T
	Err      *CallError
	Attempts int
	Elapsed  time.Duration
}

// OK reports whether the call produced a usable value
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// NotFound reports whether the call completed with an expected absence
func (o Outcome[T]) NotFound() bool {
	return o.Err != nil && o.Err.Kind == KindNotFound
}

// Invoke runs op against the named dependency with per-attempt timeout,
// retry with exponential backoff, and the dependency's circuit breaker.
// Retries happen inside a single breaker execution so the circuit observes
// one outcome per logical call, not one per attempt.
func Invoke[T any](ctx context.Context, dep *Dependency, op func(ctx context.Context) (T, error)) Outcome[T] {
	started := time.Now()
	attempts := 0

	result, err := dep.breaker.Execute(func() (interface{}, error) {
		var value T

		cfg := retry.Config{
			MaxAttempts:   dep.policy.MaxAttempts,
			InitialDelay:  dep.policy.BackoffBase,
			MaxDelay:      dep.policy.BackoffMax,
			BackoffFactor: 2.0,
		}

		callErr := retry.DoWithLog(ctx, cfg, dep.name, func() error {
			attempts++

			attemptCtx := ctx
			if dep.policy.Timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, dep.policy.Timeout)
				defer cancel()
			}

			v, opErr := op(attemptCtx)
			if opErr != nil {
				ce := Classify(opErr)
				if !ce.Retryable() {
					return retry.Unrecoverable(ce)
				}
				return ce
			}
			value = v
			return nil
		}, func(attempt int, attemptErr error, nextDelay time.Duration) {
			log.Debug().
				Str("dependency", dep.name).
				Int("attempt", attempt).
				Dur("next_delay", nextDelay).
				Err(attemptErr).
				Msg("upstream call failed, retrying")
		})

		if callErr != nil {
			return nil, callErr
		}
		return value, nil
	})

	outcome := Outcome[T]{
		Attempts: attempts,
		Elapsed:  time.Since(started),
	}

	if err != nil {
		outcome.Err = toCallError(err)
		return outcome
	}

	outcome.Value = result.(T)
	return outcome
}

func toCallError(err error) *CallError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &CallError{Kind: KindCircuitOpen, Err: err}
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	return &CallError{Kind: KindTransport, Err: err}
}
