package race

import (
	"errors"
	"fmt"
)

// ErrInvalidStateTransition matches every *TransitionError.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// TransitionError is returned when an operation is not allowed in the current state.
type TransitionError struct {
	Op     string
	State  State
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s while %s: %s", e.Op, e.State, e.Reason)
	}
	return fmt.Sprintf("cannot %s while %s", e.Op, e.State)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}
