// Package controllers holds the view logic of the tracker: filter and
// pagination state of the task list, the create/edit forms and the auth
// flows. Controllers know nothing about HTTP; they call a Backend and return
// Navigation commands for the router to execute.
package controllers

import (
	"context"
	"errors"

	"github.com/yukikurage/issue-tracker-ui/internal/api"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
)

var (
	ErrSuperuserRequired = errors.New("only superusers can perform this action")
	ErrUnknownFilter     = errors.New("unknown filter field")
	ErrInvalidPage       = errors.New("page out of range")
	ErrTaskNotLoaded     = errors.New("task has not been loaded")
)

// Backend is the part of the API façade the controllers use.
type Backend interface {
	SignUp(ctx context.Context, creds models.Credentials) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*api.LoginResponse, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) (*models.TaskPage, error)
	GetTask(ctx context.Context, id uint64) (*models.Task, error)
	CreateTask(ctx context.Context, in api.CreateTaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id uint64, in api.UpdateTaskInput) (*models.Task, error)
	DeleteTask(ctx context.Context, id uint64) error
	ListUsers(ctx context.Context) ([]models.DirectoryEntry, error)
	FetchRenderedHTML(ctx context.Context, reference string) (string, error)
}

var _ Backend = (*api.Facade)(nil)

type NavigationKind int

const (
	// Stay keeps the current view; used on failure.
	Stay NavigationKind = iota
	// Navigate moves to another view.
	Navigate
	// Reload moves to another view with a full page load so no cached state survives.
	Reload
)

// Navigation is a command returned by a controller and executed by the router.
type Navigation struct {
	Kind   NavigationKind
	Target string
}

func NavigateTo(target string) Navigation {
	return Navigation{Kind: Navigate, Target: target}
}

func ReloadTo(target string) Navigation {
	return Navigation{Kind: Reload, Target: target}
}

// StayHere is the zero Navigation.
var StayHere = Navigation{}

// ToLogin is where every authentication failure ends up.
var ToLogin = ReloadTo(constants.RouteLogin)

func usernames(entries []models.DirectoryEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Username)
	}
	return names
}

func inDirectory(entries []models.DirectoryEntry, username string) bool {
	for _, e := range entries {
		if e.Username == username {
			return true
		}
	}
	return false
}
