// Package retry runs remote operations under a bounded retry policy with
// exponential backoff and a per-attempt timeout.
//
// The executor knows nothing about the operations it runs. Every failure,
// timeouts included, is retried against the same budget unless the operation
// marks it Permanent or the caller opted into WithRetryIf. Each attempt gets its own context, which is cancelled
// as soon as the attempt is abandoned; a result that arrives after that is
// dropped and never reaches the caller or the retry bookkeeping.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Operation is a single try of a remote call.
type Operation[T any] func(ctx context.Context) (T, error)

// RetryEvent describes a failed attempt that is about to be retried.
type RetryEvent struct {
	Label   string
	Attempt int // 1-based number of the attempt that failed
	Backoff time.Duration
	Err     error
}

type Option func(*Executor)

// WithClock replaces the real clock. Tests pass a clockwork fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Executor) {
		e.clock = clock
	}
}

// WithRetryHook registers fn to be called before every backoff wait.
func WithRetryHook(fn func(RetryEvent)) Option {
	return func(e *Executor) {
		e.onRetry = fn
	}
}

// WithRetryIf limits retries to errors for which fn returns true. Without it
// every failure is retried until the budget runs out.
func WithRetryIf(fn func(error) bool) Option {
	return func(e *Executor) {
		e.retryIf = fn
	}
}

// Executor applies one Policy to every operation handed to Do.
type Executor struct {
	policy  Policy
	clock   clockwork.Clock
	onRetry func(RetryEvent)
	retryIf func(error) bool
}

func NewExecutor(policy Policy, opts ...Option) *Executor {
	e := &Executor{
		policy: policy,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Policy() Policy {
	return e.policy
}

func (e *Executor) Clock() clockwork.Clock {
	return e.clock
}

type outcome[T any] struct {
	value T
	err   error
}

// Do runs op until it succeeds or the policy is used up. It makes at most
// MaxRetries+1 attempts and only waits between attempts. Exhaustion returns
// an *ExhaustedError carrying label and the last attempt's error.
func Do[T any](ctx context.Context, e *Executor, label string, op Operation[T]) (T, error) {
	var zero T
	backoff := e.policy.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: %w", label, err)
		}

		value, err := runAttempt(ctx, e, op)
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("operation", label).
					Int("attempt", attempt).
					Msg("operation succeeded after retry")
			}
			return value, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("%s: %w", label, ctxErr)
		}

		if IsPermanent(err) || (e.retryIf != nil && !e.retryIf(err)) {
			log.Error().Err(err).Str("operation", label).Int("attempt", attempt).Msg("operation failed permanently")
			return zero, fmt.Errorf("%s: %w", label, err)
		}

		if attempt > e.policy.MaxRetries {
			log.Error().
				Err(err).
				Str("operation", label).
				Int("attempts", attempt).
				Bool("timeout", IsTimeout(err)).
				Msg("operation failed, retries exhausted")
			return zero, &ExhaustedError{Label: label, Attempts: attempt, Err: err}
		}

		log.Warn().
			Err(err).
			Str("operation", label).
			Int("attempt", attempt).
			Int("max_retries", e.policy.MaxRetries).
			Dur("backoff", backoff).
			Msg("operation failed, retrying")

		if e.onRetry != nil {
			e.onRetry(RetryEvent{Label: label, Attempt: attempt, Backoff: backoff, Err: err})
		}

		if err := e.wait(ctx, backoff); err != nil {
			return zero, fmt.Errorf("%s: %w", label, err)
		}
		backoff = e.policy.NextBackoff(backoff)
	}
}

// runAttempt races op against the per-attempt timeout.
func runAttempt[T any](ctx context.Context, e *Executor, op Operation[T]) (T, error) {
	var zero T

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so an abandoned attempt can always deliver and exit.
	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: fmt.Errorf("operation panicked: %v", r)}
			}
		}()
		value, err := op(attemptCtx)
		done <- outcome[T]{value: value, err: err}
	}()

	timer := e.clock.NewTimer(e.policy.PerAttemptTimeout)
	defer stopAndDrainTimer(timer)

	select {
	case res := <-done:
		return res.value, res.err
	case <-timer.Chan():
		return zero, fmt.Errorf("%w after %v", ErrTimeout, e.policy.PerAttemptTimeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (e *Executor) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := e.clock.NewTimer(d)
	defer stopAndDrainTimer(timer)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// stopAndDrainTimer stops a timer and empties its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
