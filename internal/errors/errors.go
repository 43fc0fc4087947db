// Package errors provides the gateway error taxonomy and helpers for classifying failures.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrMissingParameters  = errors.New("missing parameters")
	ErrQueryTooShort      = errors.New("query too short")
	ErrInvalidOrderID     = errors.New("invalid order id")
	ErrUpstreamRejected   = errors.New("upstream rejected request")
	ErrUpstreamDown       = errors.New("upstream unreachable")
	ErrMalformedPayload   = errors.New("malformed upstream payload")
	ErrReadOnlyMode       = errors.New("operation blocked: read-only mode enabled")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// Kind classifies a failure for the response envelope and HTTP status.
type Kind string

const (
	KindMissingCredentials  Kind = "MISSING_CREDENTIALS"
	KindInvalidRequest      Kind = "INVALID_REQUEST"
	KindUpstreamRejected    Kind = "UPSTREAM_REJECTED"
	KindUpstreamUnreachable Kind = "UPSTREAM_UNREACHABLE"
	KindUnexpectedFailure   Kind = "UNEXPECTED_FAILURE"
	KindReadOnly            Kind = "READ_ONLY"
)

// HTTPStatus maps the kind onto the status code written with the envelope.
// MissingCredentials, InvalidRequest and UpstreamRejected are client errors;
// UpstreamUnreachable and UnexpectedFailure are server errors.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindMissingCredentials, KindInvalidRequest, KindUpstreamRejected:
		return http.StatusBadRequest
	case KindReadOnly:
		return http.StatusForbidden
	case KindUpstreamUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether the kind is caused by the caller or by the broker
// refusing the caller's request.
func (k Kind) IsClientError() bool {
	status := k.HTTPStatus()
	return status >= 400 && status < 500
}

// GatewayError is the error returned by every gateway operation.
type GatewayError struct {
	Op        string // operation name, e.g. "holdings"
	Kind      Kind
	Message   string // caller-facing message, safe to put in the envelope
	ErrorType string // upstream error_type, when the broker supplied one
	Err       error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Op, e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// New creates a GatewayError.
func New(op string, kind Kind, message string, err error) *GatewayError {
	return &GatewayError{
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// MissingCredentials creates a client error raised before any upstream call.
func MissingCredentials(op, message string) *GatewayError {
	return New(op, KindMissingCredentials, message, ErrMissingCredentials)
}

// InvalidRequest creates a client error for caller input the gateway refuses.
func InvalidRequest(op, message string, err error) *GatewayError {
	return New(op, KindInvalidRequest, message, err)
}

// Unexpected wraps any unclassified failure.
func Unexpected(op string, err error) *GatewayError {
	msg := "unexpected failure"
	if err != nil {
		msg = err.Error()
	}
	return New(op, KindUnexpectedFailure, msg, err)
}

// UpstreamError describes a failed call to the broker API before it is bound to an operation.
type UpstreamError struct {
	Kind       Kind // KindUpstreamRejected or KindUpstreamUnreachable
	Method     string
	Path       string
	StatusCode int
	Message    string // upstream "message" field, verbatim
	ErrorType  string // upstream "error_type" field, verbatim
	Err        error
}

func (e *UpstreamError) Error() string {
	base := fmt.Sprintf("upstream %s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		base = fmt.Sprintf("%s (%d)", base, e.StatusCode)
	}
	if e.Message != "" {
		base = fmt.Sprintf("%s: %s", base, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewRejected creates an UpstreamError for an application-level rejection.
func NewRejected(method, path string, status int, message, errorType string) *UpstreamError {
	return &UpstreamError{
		Kind:       KindUpstreamRejected,
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    message,
		ErrorType:  errorType,
		Err:        ErrUpstreamRejected,
	}
}

// NewUnreachable creates an UpstreamError for a transport-level failure.
func NewUnreachable(method, path string, status int, err error) *UpstreamError {
	if err == nil {
		err = ErrUpstreamDown
	}
	return &UpstreamError{
		Kind:       KindUpstreamUnreachable,
		Method:     method,
		Path:       path,
		StatusCode: status,
		Err:        err,
	}
}

// KindOf returns the classification of err. Unclassified errors are unexpected failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Kind
	}
	switch {
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrMissingParameters):
		return KindMissingCredentials
	case errors.Is(err, ErrReadOnlyMode):
		return KindReadOnly
	}
	return KindUnexpectedFailure
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
