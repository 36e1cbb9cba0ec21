package models

import (
	"errors"
	"fmt"
)

// Caller and page-level failures. Session faults abort one attempt; nothing
// here ever escalates to a process-level failure.
var (
	// ErrInvalidQuery is returned before any network or render operation when
	// the query carries no identifying field. Not retryable.
	ErrInvalidQuery = errors.New("invalid query: at least one identifying field is required")

	// ErrNoFieldsResolved means the form could not be addressed at all.
	ErrNoFieldsResolved = errors.New("no form fields resolved")
)

// SessionErrorKind distinguishes session open failures.
type SessionErrorKind string

const (
	SessionUnreachable  SessionErrorKind = "unreachable"
	SessionLaunchFailed SessionErrorKind = "launch_failed"
)

// SessionError is fatal to the current search attempt and is not retried
// locally.
type SessionError struct {
	Kind SessionErrorKind
	Err  error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Kind, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
