package types

import "fmt"

// CaptureState tracks the capture pipeline's position in its lifecycle.
type CaptureState int

// Pipeline states. Exactly one capture runs per session; the state is
// Idle whenever no device session is open.
const (
	StateIdle CaptureState = iota
	StateConfiguring
	StateAcquiring
	StateDraining
	StateCancelling
)

func (s CaptureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfiguring:
		return "configuring"
	case StateAcquiring:
		return "acquiring"
	case StateDraining:
		return "draining"
	case StateCancelling:
		return "cancelling"
	default:
		return "invalid"
	}
}

// ValidateTransitionTo reports whether moving from s to next is a legal
// pipeline transition.
func (s CaptureState) ValidateTransitionTo(next CaptureState) error {
	ok := false
	switch s {
	case StateIdle:
		ok = next == StateConfiguring
	case StateConfiguring:
		ok = next == StateAcquiring || next == StateIdle || next == StateCancelling
	case StateAcquiring:
		ok = next == StateDraining || next == StateCancelling || next == StateIdle
	case StateDraining:
		ok = next == StateIdle
	case StateCancelling:
		ok = next == StateIdle
	}
	if !ok {
		return fmt.Errorf("invalid capture state transition from %v to %v", s, next)
	}
	return nil
}
