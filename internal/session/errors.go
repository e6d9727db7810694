package session

import (
	"errors"
	"fmt"
)

var (
	ErrHostGone         = errors.New("host left the room")
	ErrPeerDisconnected = errors.New("peer connection lost")
	ErrSignalingError   = errors.New("coordinator error")
	ErrNoMedia          = errors.New("no media source")
	ErrClosed           = errors.New("session closed")
)

// Error wraps a failed session operation with enough context to report it
// to the user without losing the underlying cause.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}
