// Package errors defines the structured error taxonomy the HTTP layer maps
// to status codes and the error middleware logs and counts.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType categorizes an error for metrics and response formatting.
type ErrorType string

const (
	TypeValidation ErrorType = "validation" // invalid input, HTTP 400
	TypeNotFound   ErrorType = "not_found"  // missing resource, HTTP 404
	TypeInternal   ErrorType = "internal"   // server-side failure, HTTP 500
	TypeExternal   ErrorType = "external"   // downstream dependency failure, HTTP 502
)

var httpStatusByType = map[ErrorType]int{
	TypeValidation: http.StatusBadRequest,
	TypeNotFound:   http.StatusNotFound,
	TypeInternal:   http.StatusInternalServerError,
	TypeExternal:   http.StatusBadGateway,
}

// Error is a typed error carrying an optional cause and loggable context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

// ValidationError reports invalid caller input.
func ValidationError(message string) *Error {
	return newError(TypeValidation, message, nil)
}

// NotFoundError reports a missing resource.
func NotFoundError(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

// InternalError reports a server-side failure, keeping the cause for logs.
func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

// ExternalError reports a failure in a downstream dependency.
func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus maps the error type to a status code. Unknown types are
// treated as internal.
func (e *Error) HTTPStatus() int {
	if status, ok := httpStatusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithField attaches a loggable context field and returns the error for
// chaining.
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the JSON body clients receive for a failed request.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse projects the error into its client-facing form. The cause is
// deliberately absent; it goes to the logs only.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Type: e.Type, Context: e.Context}
}

// AsStructuredError extracts an *Error from anywhere in err's chain, or
// wraps a plain error as internal. Nil stays nil.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return InternalError("internal server error", err)
}
