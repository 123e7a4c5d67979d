package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-ui/internal/api"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	"github.com/yukikurage/issue-tracker-ui/internal/controllers"
	"github.com/yukikurage/issue-tracker-ui/internal/dto"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/middleware"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"github.com/yukikurage/issue-tracker-ui/internal/services"
	"github.com/yukikurage/issue-tracker-ui/internal/session"
)

// TaskHandler serves the task list, forms and detail pages.
type TaskHandler struct {
	client    *api.Client
	suggester services.SubjectSuggester
}

func NewTaskHandler(client *api.Client, suggester services.SubjectSuggester) *TaskHandler {
	if suggester == nil {
		suggester = services.TitleSuggester{}
	}
	return &TaskHandler{
		client:    client,
		suggester: suggester,
	}
}

func (h *TaskHandler) backend(c *gin.Context) controllers.Backend {
	return h.client.WithSession(session.FromContext(c))
}

func (h *TaskHandler) listController(c *gin.Context) *controllers.ListController {
	sess, _ := middleware.GetSession(c)
	return controllers.NewListController(h.backend(c), sess.User, middleware.GetLogger(c))
}

// ListTasks renders one page of the filtered list. ?reset=1 drops the
// filter, ?page=N moves to a page and ?preview=<id> opens the HTML dialog.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	const op = "handlers.Task.ListTasks"
	log := middleware.GetLogger(c).WithField("operation", op)
	ctx := c.Request.Context()

	if c.Query("reset") != "" {
		c.Redirect(http.StatusSeeOther, constants.RouteTasks)
		return
	}

	lc := h.listController(c)
	lc.ApplyQuery(c.Request.URL.Query())
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err == nil {
			err = lc.SetPage(page)
		}
		if err != nil {
			log.WithError(err).Debug("ignoring page parameter")
		}
	}

	if err := lc.Load(ctx); err != nil {
		if toLoginOnAuth(c, err) {
			return
		}
		h.renderList(c, lc, err)
		return
	}

	if raw := c.Query("preview"); raw != "" {
		var err error
		if id, parseErr := strconv.ParseUint(raw, 10, 64); parseErr != nil {
			verr := apierrors.NewValidationError()
			verr.Set("preview", "Invalid task ID")
			err = verr
		} else {
			err = lc.OpenPreview(ctx, id)
		}
		if err != nil {
			if toLoginOnAuth(c, err) {
				return
			}
			data := h.listData(c, lc)
			withError(data, err)
			c.HTML(http.StatusOK, templateList, data)
			return
		}
	}

	h.renderList(c, lc, nil)
}

func (h *TaskHandler) listData(c *gin.Context, lc *controllers.ListController) gin.H {
	f := lc.Filter()
	query := lc.Query().Encode()

	data := pageData(c, "Tasks")
	data["Filter"] = f
	data["State"] = lc.State().String()
	data["List"] = dto.ToTaskListResponse(lc.Tasks(), f, lc.Total())
	data["CreatorOptions"] = dto.UserOptions(lc.Usernames(), f.CreatorName, true)
	data["AssignerOptions"] = dto.UserOptions(lc.Usernames(), f.AssignerName, true)
	data["CriticalityOptions"] = dto.CriticalityOptions(f.Criticality, true)
	data["StatusOptions"] = dto.StatusOptions(f.Status, true)
	data["CanCreate"] = lc.CanCreate()
	data["CanDelete"] = lc.CanDelete()
	data["Query"] = template.URL(query)
	data["ListURL"] = template.URL(constants.RouteTasks + "?" + query)

	if p := lc.Preview(); p != nil {
		data["Preview"] = p
		// sanitized by the list controller
		data["PreviewHTML"] = template.HTML(p.HTML)
	}
	return data
}

func (h *TaskHandler) renderList(c *gin.Context, lc *controllers.ListController, err error) {
	data := h.listData(c, lc)
	status := http.StatusOK
	if err != nil {
		status = withError(data, err)
	}
	c.HTML(status, templateList, data)
}

func (h *TaskHandler) createController(c *gin.Context) *controllers.CreateController {
	sess, _ := middleware.GetSession(c)
	return controllers.NewCreateController(h.backend(c), sess.User, middleware.GetLogger(c))
}

func (h *TaskHandler) renderCreate(c *gin.Context, cc *controllers.CreateController, form controllers.TaskForm, err error) {
	data := pageData(c, "New task")
	data["Form"] = form
	data["AssignerOptions"] = dto.UserOptions(cc.Usernames(), form.AssignerName, false)
	data["CriticalityOptions"] = dto.CriticalityOptions(string(form.Criticality), false)
	data["StatusOptions"] = dto.StatusOptions(string(form.Status), false)

	status := http.StatusOK
	if err != nil {
		status = withError(data, err)
	}
	c.HTML(status, templateCreate, data)
}

// NewTask renders the create form.
func (h *TaskHandler) NewTask(c *gin.Context) {
	cc := h.createController(c)

	err := cc.Load(c.Request.Context())
	if err != nil && toLoginOnAuth(c, err) {
		return
	}
	h.renderCreate(c, cc, cc.NewForm(), err)
}

// CreateTask uploads a new task with its HTML file.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	const op = "handlers.Task.CreateTask"
	log := middleware.GetLogger(c).WithField("operation", op)
	ctx := c.Request.Context()

	form := controllers.TaskForm{
		AssignerName: c.PostForm("assigner_name"),
		Subject:      strings.TrimSpace(c.PostForm("subject")),
		Criticality:  models.Criticality(c.PostForm("criticality")),
		Status:       models.TaskStatus(c.PostForm("status")),
		ThreadID:     strings.TrimSpace(c.PostForm("thread_id")),
	}
	if header, err := c.FormFile("html_file"); err == nil {
		file, err := header.Open()
		if err != nil {
			log.WithError(err).Error("failed to open uploaded file")
			apierrors.InternalError(c, "Failed to read the uploaded file")
			return
		}
		defer file.Close()
		form.FileName, form.FileSize, form.File = header.Filename, header.Size, file
	}

	cc := h.createController(c)
	if err := cc.Load(ctx); err != nil {
		if toLoginOnAuth(c, err) {
			return
		}
		log.WithError(err).Warn("validating without user directory")
	}

	nav, err := cc.Submit(ctx, form)
	if err != nil {
		if toLoginOnAuth(c, err) {
			return
		}
		form.File = nil
		form.CreatorName = cc.NewForm().CreatorName
		h.renderCreate(c, cc, form, err)
		return
	}

	navigate(c, nav)
}

// ShowTask renders the read-only task view.
func (h *TaskHandler) ShowTask(c *gin.Context) {
	id, _ := middleware.GetTaskID(c)

	task, err := controllers.NewDetailController(h.backend(c), middleware.GetLogger(c)).Load(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	data := pageData(c, "Task")
	data["Task"] = dto.ToTaskDTO(*task)
	c.HTML(http.StatusOK, templateDetail, data)
}

func (h *TaskHandler) editData(c *gin.Context, id uint64, ec *controllers.EditController) gin.H {
	data := pageData(c, "Edit task")
	if task := ec.Task(); task != nil {
		data["Task"] = dto.ToTaskDTO(*task)
	} else {
		data["Task"] = dto.TaskDTO{ID: id}
	}
	data["Form"] = ec.Form
	data["AssignerOptions"] = dto.UserOptions(ec.Usernames(), ec.Form.AssignerName, false)
	data["CriticalityOptions"] = dto.CriticalityOptions(string(ec.Form.Criticality), false)
	data["StatusOptions"] = dto.StatusOptions(string(ec.Form.Status), false)
	return data
}

// EditTask renders the edit form. ?suggest=1 pre-fills the subject from the
// task's HTML without saving.
func (h *TaskHandler) EditTask(c *gin.Context) {
	id, _ := middleware.GetTaskID(c)
	ctx := c.Request.Context()

	ec := controllers.NewEditController(h.backend(c), h.suggester, middleware.GetLogger(c))
	if err := ec.Load(ctx, id); err != nil {
		fail(c, err)
		return
	}

	var suggestErr error
	if c.Query("suggest") != "" {
		suggestErr = ec.SuggestSubject(ctx)
		if suggestErr != nil && toLoginOnAuth(c, suggestErr) {
			return
		}
	}

	data := h.editData(c, id, ec)
	if suggestErr != nil {
		withError(data, suggestErr)
		if apiErr := apierrors.Describe(suggestErr); apiErr.Code == apierrors.ErrCodeInternalError {
			data["Error"] = apierrors.NewAPIError(http.StatusOK, apierrors.ErrCodeInvalidInput, "Could not suggest a subject for this task")
		}
	}
	c.HTML(http.StatusOK, templateEdit, data)
}

// UpdateTask saves the edit form.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, _ := middleware.GetTaskID(c)
	ctx := c.Request.Context()

	form := controllers.EditForm{
		AssignerName: c.PostForm("assigner_name"),
		Subject:      strings.TrimSpace(c.PostForm("subject")),
		Criticality:  models.Criticality(c.PostForm("criticality")),
		Status:       models.TaskStatus(c.PostForm("status")),
	}

	ec := controllers.NewEditController(h.backend(c), h.suggester, middleware.GetLogger(c))
	if err := ec.Load(ctx, id); err != nil {
		if toLoginOnAuth(c, err) {
			return
		}
		// Nothing was sent; show the posted values so they can be retried.
		ec.Form = form
		data := h.editData(c, id, ec)
		c.HTML(withError(data, err), templateEdit, data)
		return
	}

	nav, err := ec.Submit(ctx, id, form)
	if err != nil {
		if toLoginOnAuth(c, err) {
			return
		}
		data := h.editData(c, id, ec)
		c.HTML(withError(data, err), templateEdit, data)
		return
	}

	navigate(c, nav)
}

// ConfirmDelete asks before deleting. The list filter rides along so the
// list comes back the way it was.
func (h *TaskHandler) ConfirmDelete(c *gin.Context) {
	id, _ := middleware.GetTaskID(c)

	task, err := controllers.NewDetailController(h.backend(c), middleware.GetLogger(c)).Load(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	lc := h.listController(c)
	lc.ApplyQuery(c.Request.URL.Query())

	data := pageData(c, "Delete task")
	data["Task"] = dto.ToTaskDTO(*task)
	data["Query"] = lc.Query().Encode()
	c.HTML(http.StatusOK, templateDelete, data)
}

// DeleteTask deletes on confirm=yes and renders the refreshed list. Any
// other answer goes back to the list without a backend call.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	const op = "handlers.Task.DeleteTask"
	log := middleware.GetLogger(c).WithField("operation", op)
	id, _ := middleware.GetTaskID(c)
	ctx := c.Request.Context()

	returnQuery, err := url.ParseQuery(c.PostForm("return"))
	if err != nil {
		log.WithError(err).Debug("ignoring malformed return query")
	}
	lc := h.listController(c)
	lc.ApplyQuery(returnQuery)

	deleted, err := lc.Delete(ctx, id, c.PostForm("confirm") == "yes")
	switch {
	case err == nil && !deleted:
		c.Redirect(http.StatusSeeOther, constants.RouteTasks+"?"+lc.Query().Encode())
	case err == nil:
		h.renderList(c, lc, nil)
	case toLoginOnAuth(c, err):
	case errors.Is(err, controllers.ErrSuperuserRequired):
		apierrors.Forbidden(c, err.Error())
	case deleted:
		h.renderList(c, lc, err)
	default:
		// The delete failed; show the rows as they still are.
		if loadErr := lc.Load(ctx); loadErr != nil && toLoginOnAuth(c, loadErr) {
			return
		}
		h.renderList(c, lc, err)
	}
}
