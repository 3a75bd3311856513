// Package errorbank is the error vocabulary shared by the HTTP and gRPC
// surfaces. Store code returns *AppError; transports only translate it.
package errorbank

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind classifies an AppError.
type Kind string

const (
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

type mapping struct {
	http int
	grpc codes.Code
}

var kinds = map[Kind]mapping{
	KindBadRequest:   {http.StatusBadRequest, codes.InvalidArgument},
	KindUnauthorized: {http.StatusUnauthorized, codes.Unauthenticated},
	KindNotFound:     {http.StatusNotFound, codes.NotFound},
	KindInternal:     {http.StatusInternalServerError, codes.Internal},
}

// detailField names the offending input on validation errors.
const detailField = "field"

// AppError carries a kind, a message safe to show callers, optional details
// and the underlying cause.
type AppError struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

// Option configures an AppError.
type Option func(*AppError)

func WithCause(err error) Option {
	return func(e *AppError) { e.cause = err }
}

func WithDetail(key string, value any) Option {
	return func(e *AppError) {
		if e.details == nil {
			e.details = make(map[string]any)
		}
		e.details[key] = value
	}
}

// New builds an AppError. Unknown kinds are treated as internal.
func New(kind Kind, message string, opts ...Option) *AppError {
	if _, ok := kinds[kind]; !ok {
		kind = KindInternal
	}
	if message == "" {
		message = string(kind)
	}
	e := &AppError{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *AppError) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *AppError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *AppError) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// StatusCode is the HTTP status for the error kind.
func (e *AppError) StatusCode() int {
	return kinds[e.Kind()].http
}

// GRPCCode is the gRPC code for the error kind.
func (e *AppError) GRPCCode() codes.Code {
	return kinds[e.Kind()].grpc
}

func BadRequest(message string, opts ...Option) *AppError {
	return New(KindBadRequest, message, opts...)
}

// Invalid reports a rejected input field.
func Invalid(field, message string, opts ...Option) *AppError {
	return New(KindBadRequest, message, append(opts, WithDetail(detailField, field))...)
}

func Unauthorized(message string, opts ...Option) *AppError {
	return New(KindUnauthorized, message, opts...)
}

func NotFound(message string, opts ...Option) *AppError {
	return New(KindNotFound, message, opts...)
}

func Internal(message string, opts ...Option) *AppError {
	return New(KindInternal, message, opts...)
}

// Is reports whether err wraps an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var e *AppError
	return errors.As(err, &e) && e.kind == kind
}

// Field returns the input field an Invalid error names, or "".
func Field(err error) string {
	var e *AppError
	if !errors.As(err, &e) {
		return ""
	}
	field, _ := e.details[detailField].(string)
	return field
}

// From returns the AppError inside err, wrapping anything else as internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var e *AppError
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", WithCause(err))
}
