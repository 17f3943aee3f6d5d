// Package apperrors defines the error taxonomy shared by services and
// controllers. Services return *Error values; controllers map them to HTTP
// status codes through HTTPStatus.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status mapping and logging.
type Kind string

const (
	KindInvalidInput    Kind = "invalid-input"
	KindNotFound        Kind = "not-found"
	KindForbidden       Kind = "forbidden"
	KindUnauthorized    Kind = "unauthorized"
	KindConflict        Kind = "conflict"
	KindConfiguration   Kind = "configuration"
	KindUpstream        Kind = "upstream-failure"
	KindUploadFailed    Kind = "upload-failed"
	KindPayloadTooLarge Kind = "payload-too-large"
	KindInternal        Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindInvalidInput:    http.StatusBadRequest,
	KindNotFound:        http.StatusNotFound,
	KindForbidden:       http.StatusForbidden,
	KindUnauthorized:    http.StatusUnauthorized,
	KindConflict:        http.StatusConflict,
	KindConfiguration:   http.StatusInternalServerError,
	KindUpstream:        http.StatusInternalServerError,
	KindUploadFailed:    http.StatusInternalServerError,
	KindPayloadTooLarge: http.StatusRequestEntityTooLarge,
	KindInternal:        http.StatusInternalServerError,
}

// Error is a classified error. Message is safe to show to clients; Err holds
// the underlying cause and is only exposed in development mode.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Status overrides the default status for Kind when non-zero. Upstream
	// failures use it to surface rate limiting or credential problems.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, apperrors.ErrNotFound)
// works for any not-found error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrUpstream      = &Error{Kind: KindUpstream}
	ErrUploadFailed  = &Error{Kind: KindUploadFailed}
	ErrTooLarge      = &Error{Kind: KindPayloadTooLarge}
)

func newErr(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

func InvalidInput(op, msg string) *Error { return newErr(KindInvalidInput, op, msg, nil) }

func NotFound(op, msg string) *Error { return newErr(KindNotFound, op, msg, nil) }

func Forbidden(op, msg string) *Error { return newErr(KindForbidden, op, msg, nil) }

func Unauthorized(op, msg string) *Error { return newErr(KindUnauthorized, op, msg, nil) }

func Conflict(op, msg string) *Error { return newErr(KindConflict, op, msg, nil) }

func Configuration(op, msg string) *Error { return newErr(KindConfiguration, op, msg, nil) }

func TooLarge(op, msg string) *Error { return newErr(KindPayloadTooLarge, op, msg, nil) }

// Upstream wraps a failure from an external collaborator. status may be 0 to
// use the default 500.
func Upstream(op, msg string, status int, err error) *Error {
	e := newErr(KindUpstream, op, msg, err)
	e.Status = status
	return e
}

func UploadFailed(op, msg string, err error) *Error { return newErr(KindUploadFailed, op, msg, err) }

func Internal(op, msg string, err error) *Error { return newErr(KindInternal, op, msg, err) }

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the client-facing message for err, falling back to
// the given default for unclassified errors.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
