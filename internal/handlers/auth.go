package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-ui/internal/api"
	"github.com/yukikurage/issue-tracker-ui/internal/controllers"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/middleware"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"github.com/yukikurage/issue-tracker-ui/internal/session"
)

// AuthHandler serves the login, signup and logout pages.
type AuthHandler struct {
	client *api.Client
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client *api.Client) *AuthHandler {
	return &AuthHandler{client: client}
}

func (h *AuthHandler) controller(c *gin.Context) *controllers.AuthController {
	store := session.FromContext(c)
	return controllers.NewAuthController(h.client.WithSession(store), store, middleware.GetLogger(c))
}

func credentialsFrom(c *gin.Context) models.Credentials {
	return models.Credentials{
		Username: strings.TrimSpace(c.PostForm("username")),
		Password: c.PostForm("password"),
	}
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	c.HTML(http.StatusOK, templateLogin, pageData(c, "Log in"))
}

// Login authenticates against the main service and starts the session.
func (h *AuthHandler) Login(c *gin.Context) {
	creds := credentialsFrom(c)

	nav, err := h.controller(c).Login(c.Request.Context(), creds)
	if err != nil {
		data := pageData(c, "Log in")
		data["Username"] = creds.Username
		status := withError(data, err)
		if apierrors.IsAuth(err) {
			data["Error"] = apierrors.NewAPIError(http.StatusUnauthorized, apierrors.ErrCodeUnauthorized, "Invalid email or password")
		}
		c.HTML(status, templateLogin, data)
		return
	}

	navigate(c, nav)
}

// ShowSignup renders the signup form.
func (h *AuthHandler) ShowSignup(c *gin.Context) {
	c.HTML(http.StatusOK, templateSignup, pageData(c, "Sign up"))
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	creds := credentialsFrom(c)

	nav, err := h.controller(c).SignUp(c.Request.Context(), creds)
	if err != nil {
		data := pageData(c, "Sign up")
		data["Username"] = creds.Username
		status := withError(data, err)

		var httpErr *apierrors.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusBadRequest {
			data["Error"] = apierrors.NewAPIError(http.StatusBadRequest, apierrors.ErrCodeConflict, "This email is already registered")
		}
		c.HTML(status, templateSignup, data)
		return
	}

	navigate(c, nav)
}

// Logout removes the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	nav, err := h.controller(c).Logout()
	if err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}
	navigate(c, nav)
}
