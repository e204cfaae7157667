package workout

import (
	"errors"
	"fmt"
)

// PreconditionError reports input that a session or save cannot accept.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// NotFoundError reports a workout id with no definition behind it.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("workout %d not found", e.ID)
}

// TransportError reports a failure to reach or read from the workout source.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// LoadError is returned when a session cannot be started from a workout id.
type LoadError struct {
	ID  int64
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load workout %d: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// classify keeps NotFound/Transport/Precondition errors as they are and wraps
// anything else as a TransportError.
func classify(op string, err error) error {
	var nf *NotFoundError
	var te *TransportError
	var pe *PreconditionError
	switch {
	case errors.As(err, &nf), errors.As(err, &te), errors.As(err, &pe):
		return err
	default:
		return &TransportError{Op: op, Err: err}
	}
}
