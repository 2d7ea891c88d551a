// Package apperr classifies failures into the small set of kinds the API and the
// checkout flow react to. Messages carried by an Error are safe to show to users;
// the wrapped cause is for logs only.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrPersistence         = errors.New("persistence")
)

type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func Validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

func Upstream(msg string, cause error) error {
	return &Error{Kind: ErrUpstreamUnavailable, Message: msg, Cause: cause}
}

func Persistence(msg string, cause error) error {
	return &Error{Kind: ErrPersistence, Message: msg, Cause: cause}
}

// KindOf returns the kind sentinel of err, or nil when err is not classified.
func KindOf(err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return nil
}

// Message returns the user-safe message of err, falling back to def.
func Message(err error, def string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return def
}
