package retry

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout marks an attempt that did not finish within the per-attempt timeout.
	ErrTimeout = errors.New("operation timed out")

	// ErrRetryBudgetExhausted matches any *ExhaustedError.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
)

// ExhaustedError is the terminal failure of an operation that used up its retries.
type ExhaustedError struct {
	Label    string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Label, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrRetryBudgetExhausted
}

// TimedOut reports whether the last attempt failed on the per-attempt timeout.
func (e *ExhaustedError) TimedOut() bool {
	return errors.Is(e.Err, ErrTimeout)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. The executor returns it right
// away instead of spending the rest of the budget.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// IsTimeout reports whether err is, or wraps, a per-attempt timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
