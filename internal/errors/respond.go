package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorTemplate is the page rendered for errors that have no form to return to.
const ErrorTemplate = "error.tmpl"

// RespondWithError renders the error page
func RespondWithError(c *gin.Context, err *APIError) {
	c.HTML(err.Status, ErrorTemplate, gin.H{
		"Title": "Error",
		"Error": err,
	})
}

// Forbidden renders a 403 page
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, NewAPIError(http.StatusForbidden, ErrCodeForbidden, message))
}

// NotFound renders a 404 page
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Page not found"
	}
	RespondWithError(c, NewAPIError(http.StatusNotFound, ErrCodeNotFound, message))
}

// BadRequest renders a 400 page
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeInvalidInput, message))
}

// InternalError renders a 500 page
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, NewAPIError(http.StatusInternalServerError, ErrCodeInternalError, message))
}
