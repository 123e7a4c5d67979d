package controllers

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"github.com/yukikurage/issue-tracker-ui/internal/session"
)

// AuthController runs login, signup and logout. Login is, with the façade's
// 401 handler, the only writer of the session.
type AuthController struct {
	backend Backend
	store   session.Store
	log     *logrus.Entry
}

func NewAuthController(backend Backend, store session.Store, log *logrus.Entry) *AuthController {
	return &AuthController{
		backend: backend,
		store:   store,
		log:     log.WithField("controller", "auth"),
	}
}

func validateCredentials(creds models.Credentials) error {
	verr := apierrors.NewValidationError()
	if strings.TrimSpace(creds.Username) == "" {
		verr.Set("username", "Email is required")
	}
	if creds.Password == "" {
		verr.Set("password", "Password is required")
	}
	return verr.OrNil()
}

// Login exchanges credentials for a token, persists the session and moves to
// the task list.
func (ac *AuthController) Login(ctx context.Context, creds models.Credentials) (Navigation, error) {
	const op = "controllers.AuthController.Login"
	log := ac.log.WithField("operation", op)

	if err := validateCredentials(creds); err != nil {
		return StayHere, err
	}

	resp, err := ac.backend.Login(ctx, creds)
	if err != nil {
		log.WithError(err).Warn("login failed")
		return StayHere, err
	}

	if err := ac.store.Save(models.Session{Token: resp.AccessToken, User: resp.User}); err != nil {
		log.WithError(err).Error("failed to save session")
		return StayHere, fmt.Errorf("%s: %w", op, err)
	}

	log.WithField("username", resp.User.Username).Info("user logged in")
	return ReloadTo(constants.RouteTasks), nil
}

// SignUp registers an account and sends the user to the login page.
func (ac *AuthController) SignUp(ctx context.Context, creds models.Credentials) (Navigation, error) {
	const op = "controllers.AuthController.SignUp"

	if err := validateCredentials(creds); err != nil {
		return StayHere, err
	}

	if _, err := ac.backend.SignUp(ctx, creds); err != nil {
		ac.log.WithField("operation", op).WithError(err).Warn("signup failed")
		return StayHere, err
	}
	return ReloadTo(constants.RouteLogin), nil
}

// Logout forgets the session.
func (ac *AuthController) Logout() (Navigation, error) {
	if err := ac.store.Clear(); err != nil {
		return StayHere, err
	}
	return ToLogin, nil
}
