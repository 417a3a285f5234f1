package swarm

import (
	"errors"
	"fmt"
)

// Authentication and fan-out failure taxonomy. Every failure is terminal for
// its own session only; callers log and move on.
var (
	ErrLoginRejected            = errors.New("guest login rejected")
	ErrJoinRejected             = errors.New("class join rejected")
	ErrDashboardUnreachable     = errors.New("student dashboard unreachable")
	ErrDashboardShapeMismatch   = errors.New("page does not look like a student dashboard")
	ErrMissingSessionCredential = errors.New("missing session cookie after login")
	ErrChannelAbsent            = errors.New("session has no event channel")
	ErrNoOptionsAvailable       = errors.New("no poll options available")
)

// TransportError wraps a transport-level fault (connection refused, timeout,
// DNS failure) so it never propagates to callers as an unhandled fault.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
