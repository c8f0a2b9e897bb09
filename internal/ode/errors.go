package ode

import (
	"errors"
	"fmt"
)

// Domain errors for integration runs.
var (
	// ErrBadConfig indicates a malformed run configuration: bad tolerances,
	// step bounds, output-time ordering, or an empty state.
	ErrBadConfig = errors.New("ode: invalid configuration")

	// ErrDimensionMismatch indicates the RHS output length differs from the
	// state dimension.
	ErrDimensionMismatch = errors.New("ode: dimension mismatch between state and system")

	// ErrUnknownComponent indicates an event names a state component that
	// does not exist in the layout.
	ErrUnknownComponent = errors.New("ode: unknown state component")

	// ErrBadEventOp indicates an event carries an unrecognized operation.
	ErrBadEventOp = errors.New("ode: invalid event operation")

	// ErrStepUnderflow indicates the adaptive stepper could not satisfy the
	// error tolerance even at the minimum step size.
	ErrStepUnderflow = errors.New("ode: adaptive step below minimum")

	// ErrTimeout indicates the run was canceled or exceeded its step budget.
	ErrTimeout = errors.New("ode: run canceled or budget exceeded")

	// ErrInvalidState indicates the state picked up a NaN or Inf component.
	ErrInvalidState = errors.New("ode: invalid state (NaN or Inf detected)")
)

// RunError wraps a terminal failure with the last successfully reached
// time and state so the caller can diagnose the run.
type RunError struct {
	Time  float64
	State State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%v (last reached t=%.6g)", e.Err, e.Time)
}

func (e *RunError) Unwrap() error { return e.Err }
