// Package errorz holds the error kinds returned by the domain services.
// Every kind is a sentinel; services attach a user-facing message with New
// and callers classify with errors.Is.
package errorz

import "errors"

var (
	Validation          = errors.New("validation error")
	Unauthenticated     = errors.New("unauthenticated")
	Forbidden           = errors.New("forbidden")
	NotFound            = errors.New("not found")
	Conflict            = errors.New("conflict")
	CapacityExceeded    = errors.New("capacity exceeded")
	PaymentNotSucceeded = errors.New("payment not succeeded")
)

// Error is a kind plus the message shown to the client
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New returns an error of the given kind carrying msg
func New(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Message returns the client-facing message of err, or "" when err carries none
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
