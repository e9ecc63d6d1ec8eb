// Package fault defines the error taxonomy shared by every layer. Domain errors
// wrap exactly one kind so transports can translate them with errors.Is.
package fault

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream failure")
	ErrUnauthenticated = errors.New("authentication required")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// New returns an error with its own message that matches kind under errors.Is.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Wrap tags err with kind, keeping err in the chain.
func Wrap(kind error, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Kind reports which taxonomy member err belongs to, or nil.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict, ErrUpstream, ErrUnauthenticated} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
