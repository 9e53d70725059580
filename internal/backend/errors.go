package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a failed backend call. Views use the kind to decide how a
// failure is presented; only KindAuthExpired has global effect (the session
// is cleared by the client before the error is returned).
type Kind int

const (
	// KindNetwork means no response was received at all. These are shown as
	// inline retry-able messages and never touch the session.
	KindNetwork Kind = iota
	// KindAuthExpired means the backend rejected the credential (HTTP 401).
	KindAuthExpired
	// KindRejected covers other 4xx/5xx responses; Message carries the
	// server-provided detail when present.
	KindRejected
	// KindValidation is a client-side input rejection that never reaches the
	// wire.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network unavailable"
	case KindAuthExpired:
		return "session expired"
	case KindRejected:
		return "request rejected"
	case KindValidation:
		return "invalid input"
	default:
		return "unknown"
	}
}

// Error is the failure type for all backend calls.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 for network and validation failures
	Message string // server detail or validation description
	Err     error  // underlying transport error, if any
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidation builds a client-side validation error.
func NewValidation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// ErrKind returns the backend error kind, or (0, false) when err is not a
// backend error.
func ErrKind(err error) (Kind, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return 0, false
}

// IsAuthExpired reports whether err is an authorization failure.
func IsAuthExpired(err error) bool {
	k, ok := ErrKind(err)
	return ok && k == KindAuthExpired
}

// IsNetwork reports whether err is a no-response transport failure.
func IsNetwork(err error) bool {
	k, ok := ErrKind(err)
	return ok && k == KindNetwork
}

// IsValidation reports whether err is a client-side input rejection.
func IsValidation(err error) bool {
	k, ok := ErrKind(err)
	return ok && k == KindValidation
}
