package controllers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"github.com/yukikurage/issue-tracker-ui/internal/utils"
	"golang.org/x/sync/errgroup"
)

type ListState int

const (
	// ListIdle means the shown rows do not match the filter yet.
	ListIdle ListState = iota
	ListLoading
	ListLoaded
	ListFailed
)

func (s ListState) String() string {
	switch s {
	case ListIdle:
		return "idle"
	case ListLoading:
		return "loading"
	case ListLoaded:
		return "loaded"
	case ListFailed:
		return "failed"
	}
	return "unknown"
}

type RowStyle string

const (
	RowStyleClosed       RowStyle = "closed"
	RowStyleCriticalOpen RowStyle = "critical-open"
	RowStyleNormal       RowStyle = "normal"
)

// RowStyleOf picks the highlighting of a list row. The first matching rule wins.
func RowStyleOf(task models.Task) RowStyle {
	if task.Status == models.TaskStatusClosed {
		return RowStyleClosed
	}
	if task.Criticality == models.CriticalityCritical && task.Status == models.TaskStatusOpen {
		return RowStyleCriticalOpen
	}
	return RowStyleNormal
}

// Preview is the content of the read-only HTML dialog.
type Preview struct {
	Task models.Task
	// HTML has been sanitized and is safe to render verbatim.
	HTML string
}

// ListController owns the filter state of the task list.
type ListController struct {
	backend Backend
	log     *logrus.Entry
	user    models.User
	policy  *bluemonday.Policy

	filter  models.TaskFilter
	state   ListState
	tasks   []models.Task
	total   int
	users   []models.DirectoryEntry
	err     error
	preview *Preview
}

func NewListController(backend Backend, user models.User, log *logrus.Entry) *ListController {
	return &ListController{
		backend: backend,
		log:     log.WithField("controller", "list"),
		user:    user,
		policy:  previewPolicy(),
		filter:  models.DefaultTaskFilter(),
		state:   ListIdle,
	}
}

// previewPolicy keeps user-generated markup plus inline presentation styles.
// <style> blocks are still dropped.
func previewPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowStyles(
		"color", "background-color",
		"font-family", "font-size", "font-style", "font-weight",
		"text-align", "text-decoration",
		"margin", "padding", "border",
		"width", "height",
	).Globally()
	return p
}

func (l *ListController) Filter() models.TaskFilter { return l.filter }
func (l *ListController) State() ListState         { return l.state }
func (l *ListController) Tasks() []models.Task     { return l.tasks }
func (l *ListController) Total() int               { return l.total }
func (l *ListController) Err() error               { return l.err }
func (l *ListController) Preview() *Preview        { return l.preview }

// Usernames is the directory shown in the creator/assigner selects.
func (l *ListController) Usernames() []string { return usernames(l.users) }

// CanCreate and CanDelete gate the superuser-only actions.
func (l *ListController) CanCreate() bool { return l.user.IsSuperuser }
func (l *ListController) CanDelete() bool { return l.user.IsSuperuser }

// Page is the 1-based current page.
func (l *ListController) Page() int {
	return l.pagination().Page()
}

// PageCount is ceil(total/limit) for the last loaded result.
func (l *ListController) PageCount() int {
	return utils.PageCount(l.total, l.filter.Limit)
}

func (l *ListController) pagination() utils.PaginationParams {
	return utils.PaginationParams{Skip: l.filter.Skip, Limit: l.filter.Limit}
}

// SetFilter replaces one filter field. skip is left alone, so narrowing the
// filter can leave the list on a page past the end.
func (l *ListController) SetFilter(field, value string) error {
	switch field {
	case "creator_name":
		l.filter.CreatorName = orAll(value)
	case "assigner_name":
		l.filter.AssignerName = orAll(value)
	case "subject_contains":
		l.filter.SubjectContains = value
	case "thread_id":
		l.filter.ThreadID = value
	case "criticality":
		value = orAll(value)
		if value != constants.FilterAll && !models.Criticality(value).Valid() {
			return fmt.Errorf("invalid criticality %q", value)
		}
		l.filter.Criticality = value
	case "status":
		value = orAll(value)
		if value != constants.FilterAll && !models.TaskStatus(value).Valid() {
			return fmt.Errorf("invalid status %q", value)
		}
		l.filter.Status = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFilter, field)
	}
	l.invalidate()
	return nil
}

// SetPage moves to page (1-based).
func (l *ListController) SetPage(page int) error {
	if page < 1 || page > l.pagination().MaxPage() {
		return ErrInvalidPage
	}
	p := l.pagination().WithPage(page)
	l.filter.Skip = p.Skip
	l.invalidate()
	return nil
}

// Reset restores the default filter.
func (l *ListController) Reset() {
	l.filter = models.DefaultTaskFilter()
	l.invalidate()
}

// filterFields are the query keys ApplyQuery copies through SetFilter.
var filterFields = []string{"creator_name", "assigner_name", "subject_contains", "criticality", "status", "thread_id"}

// ApplyQuery restores the filter state encoded by Query. Invalid values fall
// back to their defaults.
func (l *ListController) ApplyQuery(values url.Values) {
	l.filter = models.DefaultTaskFilter()
	p := utils.GetPaginationParams(values)
	l.filter.Skip, l.filter.Limit = p.Skip, p.Limit

	for _, field := range filterFields {
		if !values.Has(field) {
			continue
		}
		if err := l.SetFilter(field, values.Get(field)); err != nil {
			l.log.WithError(err).Debug("ignoring filter value")
		}
	}
	l.invalidate()
}

// Query encodes the UI filter state, "All" included, for links back to the list.
func (l *ListController) Query() url.Values {
	return EncodeFilter(l.filter)
}

// EncodeFilter is the inverse of ApplyQuery.
func EncodeFilter(f models.TaskFilter) url.Values {
	return url.Values{
		"skip":             {strconv.Itoa(f.Skip)},
		"limit":            {strconv.Itoa(f.Limit)},
		"creator_name":     {f.CreatorName},
		"assigner_name":    {f.AssignerName},
		"subject_contains": {f.SubjectContains},
		"criticality":      {f.Criticality},
		"status":           {f.Status},
		"thread_id":        {f.ThreadID},
	}
}

func (l *ListController) invalidate() {
	l.state = ListIdle
	l.preview = nil
}

// Load fetches the current page and the user directory concurrently. A
// directory failure only empties the selects; a task failure fails the view
// and keeps the previously shown rows.
func (l *ListController) Load(ctx context.Context) error {
	const op = "controllers.ListController.Load"
	log := l.log.WithField("operation", op)

	l.state = ListLoading
	l.err = nil

	var (
		page  *models.TaskPage
		users []models.DirectoryEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := l.backend.ListTasks(gctx, l.filter)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	g.Go(func() error {
		u, err := l.backend.ListUsers(gctx)
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
		log.WithError(err).Error("failed to load tasks")
		l.state = ListFailed
		l.err = err
		return err
	}

	l.tasks = page.Items
	l.total = page.Total
	l.users = users
	l.state = ListLoaded
	return nil
}

// Delete removes a task once the user confirmed and then reloads the list
// exactly once. Declining makes no backend call. It reports whether the
// task was deleted.
func (l *ListController) Delete(ctx context.Context, id uint64, confirmed bool) (bool, error) {
	const op = "controllers.ListController.Delete"

	if !l.CanDelete() {
		return false, ErrSuperuserRequired
	}
	if !confirmed {
		return false, nil
	}

	if err := l.backend.DeleteTask(ctx, id); err != nil {
		l.log.WithField("operation", op).WithError(err).Error("failed to delete task")
		return false, err
	}

	l.invalidate()
	return true, l.Load(ctx)
}

// OpenPreview fetches the rendered HTML of a task for the preview dialog.
func (l *ListController) OpenPreview(ctx context.Context, id uint64) error {
	const op = "controllers.ListController.OpenPreview"
	log := l.log.WithField("operation", op)

	task, err := l.findTask(ctx, id)
	if err != nil {
		log.WithError(err).Error("failed to load task")
		return err
	}

	content, err := l.backend.FetchRenderedHTML(ctx, task.HTMLFile)
	if err != nil {
		log.WithError(err).Error("failed to fetch task html")
		return err
	}

	l.preview = &Preview{
		Task: *task,
		HTML: l.policy.Sanitize(content),
	}
	return nil
}

// ClosePreview hides the dialog.
func (l *ListController) ClosePreview() {
	l.preview = nil
}

func (l *ListController) findTask(ctx context.Context, id uint64) (*models.Task, error) {
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			return &l.tasks[i], nil
		}
	}
	return l.backend.GetTask(ctx, id)
}

func orAll(value string) string {
	if value == "" {
		return constants.FilterAll
	}
	return value
}
