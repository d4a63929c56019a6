package recommendation

import (
	"errors"
	"net/http"
)

// Kind classifies a recommendation failure.
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindNotFound
	KindExternalDependencyFailure
	KindInvalidOutput
	KindReferentialViolation
)

// Code is the machine-readable name returned to clients.
func (k Kind) Code() string {
	switch k {
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindExternalDependencyFailure:
		return "EXTERNAL_DEPENDENCY_FAILURE"
	case KindInvalidOutput:
		return "INVALID_OUTPUT"
	case KindReferentialViolation:
		return "REFERENTIAL_VIOLATION"
	default:
		return "INTERNAL"
	}
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is returned by every operation of this package.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Kind.Code() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.Code() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind carried by err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
