package models

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindBadRequest ErrorKind = iota
	KindUnauthorized
	KindNotFound
	KindConflict
	KindInternal
)

// Error is the failure taxonomy surfaced by the services. Handlers map the
// kind to an HTTP status; everything the services cannot classify stays a
// plain error and renders as an internal server error.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NewBadRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewConflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewInternal wraps an unexpected collaborator failure without rewording it.
func NewInternal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal Server Error", Err: err}
}

// AsError unwraps err into the taxonomy, if it belongs to it.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsKind(err error, kind ErrorKind) bool {
	if e, ok := AsError(err); ok {
		return e.Kind == kind
	}
	return false
}
