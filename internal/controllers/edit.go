package controllers

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/api"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"github.com/yukikurage/issue-tracker-ui/internal/services"
	"golang.org/x/sync/errgroup"
)

// EditForm holds the editable fields of a task. CreatorName is shown but
// never submitted.
type EditForm struct {
	CreatorName  string
	AssignerName string
	Subject      string
	Criticality  models.Criticality
	Status       models.TaskStatus
}

type EditController struct {
	backend   Backend
	suggester services.SubjectSuggester
	log       *logrus.Entry

	task  *models.Task
	users []models.DirectoryEntry
	Form  EditForm
}

func NewEditController(backend Backend, suggester services.SubjectSuggester, log *logrus.Entry) *EditController {
	return &EditController{
		backend:   backend,
		suggester: suggester,
		log:       log.WithField("controller", "edit"),
	}
}

func (ec *EditController) Task() *models.Task  { return ec.task }
func (ec *EditController) Usernames() []string { return usernames(ec.users) }

// Load fetches the task and the user directory and fills the form.
func (ec *EditController) Load(ctx context.Context, id uint64) error {
	const op = "controllers.EditController.Load"
	log := ec.log.WithField("operation", op)

	var (
		task  *models.Task
		users []models.DirectoryEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := ec.backend.GetTask(gctx, id)
		if err != nil {
			return err
		}
		task = t
		return nil
	})
	g.Go(func() error {
		u, err := ec.backend.ListUsers(gctx)
		if err != nil {
			if apierrors.IsAuth(err) {
				return err
			}
			log.WithError(err).Warn("failed to load user directory")
			return nil
		}
		users = u
		return nil
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("failed to load task")
		return err
	}

	ec.task = task
	ec.users = users
	ec.Form = EditForm{
		CreatorName:  task.CreatorName,
		AssignerName: task.AssignerName,
		Subject:      task.Subject,
		Criticality:  task.Criticality,
		Status:       task.Status,
	}
	return nil
}

// SuggestSubject replaces the form's subject with one derived from the
// task's HTML. Nothing is saved.
func (ec *EditController) SuggestSubject(ctx context.Context) error {
	const op = "controllers.EditController.SuggestSubject"
	log := ec.log.WithField("operation", op)

	if ec.task == nil {
		return ErrTaskNotLoaded
	}

	document, err := ec.backend.FetchRenderedHTML(ctx, ec.task.HTMLFile)
	if err != nil {
		log.WithError(err).Error("failed to fetch task html")
		return err
	}

	subject, err := ec.suggester.SuggestSubject(ctx, document)
	if err != nil {
		log.WithError(err).Warn("failed to suggest subject")
		return err
	}

	ec.Form.Subject = subject
	return nil
}

// Validate checks lengths and enum values. Empty fields are allowed and are
// left unchanged by the update.
func (ec *EditController) Validate(form EditForm) error {
	verr := apierrors.NewValidationError()

	validateSubject(verr, form.Subject, false)
	if form.Criticality != "" && !form.Criticality.Valid() {
		verr.Set("criticality", "Unknown criticality")
	}
	if form.Status != "" && !form.Status.Valid() {
		verr.Set("status", "Unknown status")
	}
	if form.AssignerName != "" && len(ec.users) > 0 && !inDirectory(ec.users, form.AssignerName) {
		verr.Set("assigner_name", "Unknown user")
	}

	return verr.OrNil()
}

// Submit sends the partial update. Success reloads the list page in full so
// no stale list state survives.
func (ec *EditController) Submit(ctx context.Context, id uint64, form EditForm) (Navigation, error) {
	const op = "controllers.EditController.Submit"
	log := ec.log.WithField("operation", op).WithField("task_id", id)

	if ec.task != nil {
		form.CreatorName = ec.task.CreatorName
	}
	ec.Form = form

	if err := ec.Validate(form); err != nil {
		return StayHere, err
	}

	if _, err := ec.backend.UpdateTask(ctx, id, api.UpdateTaskInput{
		AssignerName: form.AssignerName,
		Subject:      form.Subject,
		Criticality:  form.Criticality,
		Status:       form.Status,
	}); err != nil {
		log.WithError(err).Error("failed to update task")
		return StayHere, err
	}

	log.Info("task updated")
	return ReloadTo(constants.RouteTasks), nil
}
