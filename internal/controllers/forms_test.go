package controllers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"github.com/yukikurage/issue-tracker-ui/internal/services"
)

func validTaskForm(subject string) TaskForm {
	return TaskForm{
		AssignerName: "c@d.com",
		Subject:      subject,
		Criticality:  models.CriticalityHigh,
		Status:       models.TaskStatusOpen,
		ThreadID:     "thread-1",
		FileName:     "mail.html",
		FileSize:     11,
		File:         strings.NewReader("<p>help</p>"),
	}
}

func newCreateController(t *testing.T, backend *fakeBackend) *CreateController {
	t.Helper()
	backend.users = []models.DirectoryEntry{{Username: "a@b.com"}, {Username: "c@d.com"}}
	cc := NewCreateController(backend, superuser, quietLogger())
	require.NoError(t, cc.Load(context.Background()))
	return cc
}

func TestCreateController_SubjectLimit(t *testing.T) {
	backend := newFakeBackend()
	cc := newCreateController(t, backend)

	nav, err := cc.Submit(context.Background(), validTaskForm(strings.Repeat("x", 100)))
	require.NoError(t, err)
	assert.Equal(t, NavigateTo("/tasks"), nav)
	require.Len(t, backend.created, 1)

	nav, err = cc.Submit(context.Background(), validTaskForm(strings.Repeat("x", 101)))
	var verr *apierrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "subject")
	assert.Equal(t, StayHere, nav)
	assert.Len(t, backend.created, 1, "invalid form must not be submitted")
}

func TestCreateController_CreatorIsSessionUser(t *testing.T) {
	backend := newFakeBackend()
	cc := newCreateController(t, backend)

	form := validTaskForm("disk full")
	form.CreatorName = "someone-else@b.com"
	_, err := cc.Submit(context.Background(), form)

	require.NoError(t, err)
	assert.Equal(t, superuser.Username, backend.created[0].CreatorName)
	assert.Equal(t, superuser.Username, cc.NewForm().CreatorName)
}

func TestCreateController_RequiredFields(t *testing.T) {
	cc := newCreateController(t, newFakeBackend())

	err := cc.Validate(TaskForm{AssignerName: "nobody@b.com"})

	var verr *apierrors.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"assigner_name", "subject", "criticality", "status", "thread_id", "html_file"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestCreateController_BackendFailureStays(t *testing.T) {
	backend := newFakeBackend()
	cc := newCreateController(t, backend)
	backend.saveErr = &apierrors.HTTPError{Status: http.StatusBadRequest}

	nav, err := cc.Submit(context.Background(), validTaskForm("disk full"))

	require.Error(t, err)
	assert.Equal(t, StayHere, nav)
}

func newEditController(t *testing.T, backend *fakeBackend) *EditController {
	t.Helper()
	backend.tasks = []models.Task{{
		ID:           7,
		CreatorName:  "a@b.com",
		AssignerName: "c@d.com",
		Subject:      "old",
		Criticality:  models.CriticalityLow,
		Status:       models.TaskStatusOpen,
		HTMLFile:     "/files/7.html",
	}}
	backend.users = []models.DirectoryEntry{{Username: "a@b.com"}, {Username: "c@d.com"}}
	ec := NewEditController(backend, services.TitleSuggester{}, quietLogger())
	require.NoError(t, ec.Load(context.Background(), 7))
	return ec
}

func TestEditController_LoadFillsForm(t *testing.T) {
	ec := newEditController(t, newFakeBackend())

	assert.Equal(t, EditForm{
		CreatorName:  "a@b.com",
		AssignerName: "c@d.com",
		Subject:      "old",
		Criticality:  models.CriticalityLow,
		Status:       models.TaskStatusOpen,
	}, ec.Form)
}

func TestEditController_SubmitReloadsList(t *testing.T) {
	backend := newFakeBackend()
	ec := newEditController(t, backend)

	form := ec.Form
	form.Status = models.TaskStatusClosed
	form.CreatorName = "forged@b.com"
	nav, err := ec.Submit(context.Background(), 7, form)

	require.NoError(t, err)
	assert.Equal(t, ReloadTo("/tasks"), nav)
	assert.Equal(t, models.TaskStatusClosed, backend.updated[7].Status)
	assert.Equal(t, "a@b.com", ec.Form.CreatorName)
}

func TestEditController_SubmitFailureKeepsForm(t *testing.T) {
	backend := newFakeBackend()
	ec := newEditController(t, backend)
	backend.saveErr = &apierrors.HTTPError{Status: http.StatusInternalServerError}

	form := ec.Form
	form.Subject = "new subject"
	nav, err := ec.Submit(context.Background(), 7, form)

	require.Error(t, err)
	assert.Equal(t, StayHere, nav)
	assert.Equal(t, "new subject", ec.Form.Subject)
}

func TestEditController_RejectsLongSubject(t *testing.T) {
	backend := newFakeBackend()
	ec := newEditController(t, backend)

	form := ec.Form
	form.Subject = strings.Repeat("y", 101)
	_, err := ec.Submit(context.Background(), 7, form)

	var verr *apierrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, backend.updated)
}

func TestEditController_SuggestSubject(t *testing.T) {
	backend := newFakeBackend()
	backend.html["/files/7.html"] = "<html><head><title>Printer jam on floor 2</title></head></html>"
	ec := newEditController(t, backend)

	require.NoError(t, ec.SuggestSubject(context.Background()))
	assert.Equal(t, "Printer jam on floor 2", ec.Form.Subject)
	assert.Empty(t, backend.updated, "suggesting must not save")
}

func TestEditController_SuggestBeforeLoad(t *testing.T) {
	ec := NewEditController(newFakeBackend(), services.TitleSuggester{}, quietLogger())
	assert.ErrorIs(t, ec.SuggestSubject(context.Background()), ErrTaskNotLoaded)
}

func TestDetailController_Load(t *testing.T) {
	backend := newFakeBackend()
	backend.tasks = []models.Task{{ID: 3, Subject: "VPN"}}
	dc := NewDetailController(backend, quietLogger())

	task, err := dc.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "VPN", task.Subject)

	_, err = dc.Load(context.Background(), 4)
	assert.Equal(t, http.StatusNotFound, apierrors.StatusOf(err))
}
