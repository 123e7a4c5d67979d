package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error codes shown on error pages and banners
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeBackendError       = "BACKEND_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from a backend.
type HTTPError struct {
	Op     string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: http %d", e.Op, e.Status)
}

// AuthError is a 401 from the main service. The session has already been
// cleared by the time callers see it.
type AuthError struct {
	*HTTPError
}

func (e *AuthError) Error() string {
	return "authentication required: " + e.HTTPError.Error()
}

func (e *AuthError) Unwrap() error { return e.HTTPError }

// DecodeError is a 2xx response whose body could not be decoded.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError collects client-side required-field violations keyed by
// form field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Set records a message for field, keeping the first one.
func (e *ValidationError) Set(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// OrNil returns nil when no field failed so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusOf returns the backend status attached to err, or 0.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// APIError is the error summary rendered to the user
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Describe maps any error from the façade or the controllers to what the
// user should see. Backend bodies are not echoed.
func Describe(err error) *APIError {
	var (
		validationErr *ValidationError
		networkErr    *NetworkError
		decodeErr     *DecodeError
		httpErr       *HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		return NewAPIError(http.StatusBadRequest, ErrCodeInvalidInput, "Please fill in all required fields")
	case IsAuth(err):
		return NewAPIError(http.StatusUnauthorized, ErrCodeUnauthorized, "Your session has expired, please log in again")
	case errors.As(err, &networkErr):
		return NewAPIError(http.StatusBadGateway, ErrCodeServiceUnavailable, "The service is temporarily unavailable")
	case errors.As(err, &decodeErr):
		return NewAPIError(http.StatusBadGateway, ErrCodeBackendError, "The service returned an unexpected response")
	case errors.As(err, &httpErr):
		switch httpErr.Status {
		case http.StatusForbidden:
			return NewAPIError(http.StatusForbidden, ErrCodeForbidden, "You are not allowed to do that")
		case http.StatusNotFound:
			return NewAPIError(http.StatusNotFound, ErrCodeNotFound, "Task not found")
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return NewAPIError(http.StatusBadRequest, ErrCodeInvalidInput, "The request was rejected")
		case http.StatusConflict:
			return NewAPIError(http.StatusConflict, ErrCodeConflict, "The request conflicts with existing data")
		}
		return NewAPIError(http.StatusBadGateway, ErrCodeBackendError, fmt.Sprintf("The service responded with status %d", httpErr.Status))
	default:
		return NewAPIError(http.StatusInternalServerError, ErrCodeInternalError, "Internal server error")
	}
}
