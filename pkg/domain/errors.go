package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownTransition is returned when a requested transition does not
// belong to the currently active phase's exposed set.
var ErrUnknownTransition = errors.New("unknown transition")

// ErrMissingPhoneNumber is returned when job metadata carries no usable
// phone number. This is fatal for the call: no session is created and
// no dial is attempted.
var ErrMissingPhoneNumber = errors.New("phone_number not found in job metadata")

// ErrCallEnded is returned when an operation arrives after the session
// has been terminated (e.g. the remote party already hung up).
var ErrCallEnded = errors.New("call already ended")

// DialError reports a dial attempt that was rejected or never answered.
// Fatal for the call, not for the process; retry policy belongs to the
// dispatch layer.
type DialError struct {
	Target         string
	Reason         string
	ProviderStatus string
	Err            error
}

func (e *DialError) Error() string {
	if e.ProviderStatus != "" {
		return fmt.Sprintf("dial %s failed: %s (sip status %s)", e.Target, e.Reason, e.ProviderStatus)
	}
	return fmt.Sprintf("dial %s failed: %s", e.Target, e.Reason)
}

func (e *DialError) Unwrap() error { return e.Err }

// ParamError reports a transition invocation whose extracted parameters
// failed validation. The active phase is left unchanged.
type ParamError struct {
	Transition TransitionName
	Missing    []string
	Err        error
}

func (e *ParamError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("transition %q missing required params: %v", e.Transition, e.Missing)
	}
	return fmt.Sprintf("transition %q: invalid params: %v", e.Transition, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }
