package controllers

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/api"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
)

// TaskForm is the state of the create form.
type TaskForm struct {
	CreatorName  string
	AssignerName string
	Subject      string
	Criticality  models.Criticality
	Status       models.TaskStatus
	ThreadID     string
	FileName     string
	FileSize     int64
	File         io.Reader
}

type CreateController struct {
	backend Backend
	log     *logrus.Entry
	user    models.User
	users   []models.DirectoryEntry
}

func NewCreateController(backend Backend, user models.User, log *logrus.Entry) *CreateController {
	return &CreateController{
		backend: backend,
		log:     log.WithField("controller", "create"),
		user:    user,
	}
}

// NewForm returns an empty form whose creator is the session user.
func (cc *CreateController) NewForm() TaskForm {
	return TaskForm{CreatorName: cc.user.Username}
}

// Usernames is the directory the assigner is picked from.
func (cc *CreateController) Usernames() []string { return usernames(cc.users) }

// Load fetches the user directory.
func (cc *CreateController) Load(ctx context.Context) error {
	users, err := cc.backend.ListUsers(ctx)
	if err != nil {
		cc.log.WithField("operation", "controllers.CreateController.Load").WithError(err).Error("failed to load users")
		return err
	}
	cc.users = users
	return nil
}

// Validate checks the required fields. The assigner must be in the directory
// once the directory is known.
func (cc *CreateController) Validate(form TaskForm) error {
	verr := apierrors.NewValidationError()

	switch {
	case strings.TrimSpace(form.AssignerName) == "":
		verr.Set("assigner_name", "Assigner is required")
	case len(cc.users) > 0 && !inDirectory(cc.users, form.AssignerName):
		verr.Set("assigner_name", "Unknown user")
	}
	validateSubject(verr, form.Subject, true)
	if !form.Criticality.Valid() {
		verr.Set("criticality", "Criticality is required")
	}
	if !form.Status.Valid() {
		verr.Set("status", "Status is required")
	}
	if strings.TrimSpace(form.ThreadID) == "" {
		verr.Set("thread_id", "Thread ID is required")
	}
	if form.File == nil || form.FileName == "" || form.FileSize <= 0 {
		verr.Set("html_file", "An HTML file is required")
	}

	return verr.OrNil()
}

// Submit validates and uploads the task. The creator is always the session
// user whatever the form says. On failure the form is left untouched.
func (cc *CreateController) Submit(ctx context.Context, form TaskForm) (Navigation, error) {
	const op = "controllers.CreateController.Submit"
	log := cc.log.WithField("operation", op)

	form.CreatorName = cc.user.Username
	if err := cc.Validate(form); err != nil {
		return StayHere, err
	}

	task, err := cc.backend.CreateTask(ctx, api.CreateTaskInput{
		CreatorName:  form.CreatorName,
		AssignerName: form.AssignerName,
		Subject:      form.Subject,
		Criticality:  form.Criticality,
		Status:       form.Status,
		ThreadID:     form.ThreadID,
		FileName:     form.FileName,
		File:         form.File,
	})
	if err != nil {
		log.WithError(err).Error("failed to create task")
		return StayHere, err
	}

	log.WithField("task_id", task.ID).Info("task created")
	return NavigateTo(constants.RouteTasks), nil
}

func validateSubject(verr *apierrors.ValidationError, subject string, required bool) {
	if required && strings.TrimSpace(subject) == "" {
		verr.Set("subject", "Subject is required")
		return
	}
	if utf8.RuneCountInString(subject) > constants.SubjectMaxLength {
		verr.Set("subject", "Subject must be at most 100 characters")
	}
}
