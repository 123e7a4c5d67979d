package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	auth := &AuthError{HTTPError: &HTTPError{Op: "api.ListTasks", Status: http.StatusUnauthorized}}
	verr := NewValidationError()
	verr.Set("subject", "Subject is required")

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", verr, http.StatusBadRequest, ErrCodeInvalidInput},
		{"auth", fmt.Errorf("wrapped: %w", auth), http.StatusUnauthorized, ErrCodeUnauthorized},
		{"network", &NetworkError{Op: "api.GetTask", Err: errors.New("refused")}, http.StatusBadGateway, ErrCodeServiceUnavailable},
		{"decode", &DecodeError{Op: "api.GetTask", Err: errors.New("eof")}, http.StatusBadGateway, ErrCodeBackendError},
		{"not found", &HTTPError{Status: http.StatusNotFound}, http.StatusNotFound, ErrCodeNotFound},
		{"forbidden", &HTTPError{Status: http.StatusForbidden}, http.StatusForbidden, ErrCodeForbidden},
		{"server", &HTTPError{Status: http.StatusInternalServerError, Body: "trace"}, http.StatusBadGateway, ErrCodeBackendError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
			assert.NotContains(t, got.Message, "trace")
		})
	}
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Set("subject", "first")
	verr.Set("subject", "second")
	verr.Set("assigner_name", "missing")

	assert.Equal(t, "first", verr.Fields["subject"])
	assert.EqualError(t, verr.OrNil(), "validation failed: assigner_name: missing; subject: first")
}

func TestIsAuthAndStatusOf(t *testing.T) {
	auth := &AuthError{HTTPError: &HTTPError{Status: http.StatusUnauthorized}}

	assert.True(t, IsAuth(fmt.Errorf("ctx: %w", auth)))
	assert.False(t, IsAuth(&HTTPError{Status: http.StatusUnauthorized}))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(auth))
	assert.Zero(t, StatusOf(errors.New("plain")))
}
