// Package apperror carries the error taxonomy that handlers turn into HTTP
// responses.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotAuthorized
	KindInvalidOrExpired
	KindDeliveryFailed
	KindStore
	KindNotFound
	KindConflict
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotAuthorized:
		return "NOT_AUTHORIZED"
	case KindInvalidOrExpired:
		return "INVALID_OR_EXPIRED"
	case KindDeliveryFailed:
		return "DELIVERY_FAILED"
	case KindStore:
		return "STORE_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is a classified error with a message that is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.Message + ": " + e.err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode maps the kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindInvalidOrExpired:
		return http.StatusBadRequest
	case KindNotAuthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, err: err}
}

func Validation(msg string) *Error {
	return newError(KindValidation, msg, nil)
}

func NotAuthorized(msg string) *Error {
	return newError(KindNotAuthorized, msg, nil)
}

// InvalidOrExpired is deliberately the same for wrong, used and expired codes.
func InvalidOrExpired() *Error {
	return newError(KindInvalidOrExpired, "Invalid or expired OTP", nil)
}

func DeliveryFailed(err error) *Error {
	return newError(KindDeliveryFailed, "Failed to send email", err)
}

func Store(err error) *Error {
	return newError(KindStore, "Storage unavailable", err)
}

func NotFound(msg string) *Error {
	return newError(KindNotFound, msg, nil)
}

func Conflict(msg string) *Error {
	return newError(KindConflict, msg, nil)
}

func TooManyRequests(msg string) *Error {
	return newError(KindTooManyRequests, msg, nil)
}

func Internal(msg string, err error) *Error {
	return newError(KindInternal, msg, err)
}

// As extracts an *Error from err, classifying anything else as internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
