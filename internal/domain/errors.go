package domain

import "fmt"

// InsufficientDataError is returned when a window is too short for a computation.
// It is fatal to that computation only.
type InsufficientDataError struct {
	Name string
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d bars, got %d", e.Name, e.Need, e.Got)
}

// UpstreamUnavailableError wraps a failed or timed out external collaborator.
type UpstreamUnavailableError struct {
	Upstream string
	Err      error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Upstream, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

// InvariantViolation signals an out-of-contract input. It is a programming
// error and must never be clamped away.
type InvariantViolation struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s=%v: %s", e.Field, e.Value, e.Reason)
}
