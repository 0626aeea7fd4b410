package services

import (
	"errors"
)

// Sentinel errors for the service layer. Handlers map these to HTTP
// statuses; services never touch HTTP themselves.
var (
	// ErrNotFound means the requested idea, suggestion or workspace does not
	// exist in the caller's scope.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the acting user does not own the workspace the
	// target belongs to.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means the target was already processed (for example a
	// suggestion that is no longer pending).
	ErrConflict = errors.New("conflict")
)

// PreconditionError is a rejected precondition on a state-changing
// operation. The message is user-facing and surfaced verbatim.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

// NewPreconditionError builds a PreconditionError with the given message
func NewPreconditionError(msg string) error {
	return &PreconditionError{Msg: msg}
}

// IsPrecondition reports whether err is a precondition violation.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
