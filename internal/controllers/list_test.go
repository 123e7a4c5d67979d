package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
)

var (
	superuser = models.User{Username: "root@b.com", IsSuperuser: true}
	regular   = models.User{Username: "a@b.com"}
)

func TestRowStyleOf(t *testing.T) {
	for _, c := range models.Criticalities {
		assert.Equal(t, RowStyleClosed, RowStyleOf(models.Task{Status: models.TaskStatusClosed, Criticality: c}), c)
	}
	assert.Equal(t, RowStyleCriticalOpen, RowStyleOf(models.Task{Status: models.TaskStatusOpen, Criticality: models.CriticalityCritical}))
	assert.Equal(t, RowStyleNormal, RowStyleOf(models.Task{Status: models.TaskStatusFixed, Criticality: models.CriticalityCritical}))
	assert.Equal(t, RowStyleNormal, RowStyleOf(models.Task{Status: models.TaskStatusOpen, Criticality: models.CriticalityHigh}))
}

func TestListController_Defaults(t *testing.T) {
	l := NewListController(newFakeBackend(), regular, quietLogger())

	want := models.TaskFilter{Skip: 0, Limit: 10, CreatorName: "All", AssignerName: "All", Criticality: "All", Status: "All"}
	if diff := cmp.Diff(want, l.Filter()); diff != "" {
		t.Errorf("default filter mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ListIdle, l.State())
	assert.Equal(t, 1, l.Page())
	assert.False(t, l.CanCreate())
	assert.False(t, l.CanDelete())
}

func TestListController_LoadAndPaginate(t *testing.T) {
	backend := newFakeBackend()
	backend.total = 25
	backend.tasks = []models.Task{{ID: 1}, {ID: 2}}
	backend.users = []models.DirectoryEntry{{Username: "a@b.com"}}
	l := NewListController(backend, regular, quietLogger())

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, ListLoaded, l.State())
	assert.Equal(t, 3, l.PageCount())
	assert.Equal(t, []string{"a@b.com"}, l.Usernames())

	require.NoError(t, l.SetPage(3))
	assert.Equal(t, ListIdle, l.State())
	assert.Equal(t, 20, l.Filter().Skip)
	assert.Equal(t, 3, l.Page())

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, 20, backend.lastFilter.Skip)

	assert.ErrorIs(t, l.SetPage(0), ErrInvalidPage)
}

func TestListController_SetPageRejectsOverflow(t *testing.T) {
	l := NewListController(newFakeBackend(), regular, quietLogger())
	require.NoError(t, l.SetPage(2))

	assert.ErrorIs(t, l.SetPage(1<<62), ErrInvalidPage)

	f := l.Filter()
	assert.Equal(t, 10, f.Skip)
	assert.Zero(t, f.Skip%f.Limit)
	assert.Equal(t, 2, l.Page())
}

func TestListController_PageFormula(t *testing.T) {
	l := NewListController(newFakeBackend(), regular, quietLogger())
	for page := 1; page <= 5; page++ {
		require.NoError(t, l.SetPage(page))
		f := l.Filter()
		assert.Equal(t, (page-1)*f.Limit, f.Skip)
		assert.Equal(t, f.Skip/f.Limit+1, l.Page())
	}
}

func TestListController_SetFilterKeepsSkip(t *testing.T) {
	l := NewListController(newFakeBackend(), regular, quietLogger())
	require.NoError(t, l.SetPage(2))

	require.NoError(t, l.SetFilter("status", "OPEN"))
	require.NoError(t, l.SetFilter("creator_name", "a@b.com"))
	require.NoError(t, l.SetFilter("subject_contains", "printer"))

	f := l.Filter()
	assert.Equal(t, 10, f.Skip)
	assert.Equal(t, "OPEN", f.Status)
	assert.Equal(t, "a@b.com", f.CreatorName)
	assert.Equal(t, "printer", f.SubjectContains)

	assert.Error(t, l.SetFilter("status", "DONE"))
	assert.Error(t, l.SetFilter("criticality", "URGENT"))
	assert.ErrorIs(t, l.SetFilter("owner", "x"), ErrUnknownFilter)

	l.Reset()
	assert.Equal(t, models.DefaultTaskFilter(), l.Filter())
}

func TestListController_QueryRoundTrip(t *testing.T) {
	l := NewListController(newFakeBackend(), regular, quietLogger())
	require.NoError(t, l.SetPage(4))
	require.NoError(t, l.SetFilter("criticality", "CRITICAL"))
	require.NoError(t, l.SetFilter("thread_id", "t-1"))

	other := NewListController(newFakeBackend(), regular, quietLogger())
	other.ApplyQuery(l.Query())

	if diff := cmp.Diff(l.Filter(), other.Filter()); diff != "" {
		t.Errorf("filter did not survive the query string (-want +got):\n%s", diff)
	}
}

func TestListController_ApplyQueryIgnoresGarbage(t *testing.T) {
	l := NewListController(newFakeBackend(), regular, quietLogger())
	l.ApplyQuery(url.Values{"status": {"BOGUS"}, "skip": {"13"}, "limit": {"10"}})

	assert.Equal(t, "All", l.Filter().Status)
	assert.Equal(t, 10, l.Filter().Skip)
}

func TestListController_LoadFailureKeepsRows(t *testing.T) {
	backend := newFakeBackend()
	backend.tasks = []models.Task{{ID: 1}}
	backend.total = 1
	l := NewListController(backend, regular, quietLogger())
	require.NoError(t, l.Load(context.Background()))

	backend.listErr = &apierrors.HTTPError{Status: http.StatusInternalServerError}
	err := l.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, ListFailed, l.State())
	assert.Equal(t, err, l.Err())
	assert.Len(t, l.Tasks(), 1)
}

func TestListController_DirectoryFailureIsTolerated(t *testing.T) {
	backend := newFakeBackend()
	backend.usersErr = errors.New("boom")
	l := NewListController(backend, regular, quietLogger())

	require.NoError(t, l.Load(context.Background()))
	assert.Empty(t, l.Usernames())

	backend.usersErr = &apierrors.AuthError{HTTPError: &apierrors.HTTPError{Status: http.StatusUnauthorized}}
	err := l.Load(context.Background())
	assert.True(t, apierrors.IsAuth(err))
}

func TestListController_DeleteConfirmed(t *testing.T) {
	backend := newFakeBackend()
	backend.tasks = []models.Task{{ID: 1}, {ID: 2}}
	l := NewListController(backend, superuser, quietLogger())
	require.NoError(t, l.Load(context.Background()))
	before := backend.listCalls

	deleted, err := l.Delete(context.Background(), 2, true)

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []uint64{2}, backend.deleted)
	assert.Equal(t, before+1, backend.listCalls, "exactly one refetch")
}

func TestListController_DeleteDeclined(t *testing.T) {
	backend := newFakeBackend()
	l := NewListController(backend, superuser, quietLogger())

	deleted, err := l.Delete(context.Background(), 2, false)

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, backend.deleted)
	assert.Zero(t, backend.listCalls)
}

func TestListController_DeleteFailureDoesNotRefetch(t *testing.T) {
	backend := newFakeBackend()
	backend.tasks = []models.Task{{ID: 2}}
	backend.delErr = &apierrors.HTTPError{Status: http.StatusInternalServerError}
	l := NewListController(backend, superuser, quietLogger())
	require.NoError(t, l.Load(context.Background()))

	deleted, err := l.Delete(context.Background(), 2, true)

	require.Error(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, backend.listCalls)
	assert.Len(t, l.Tasks(), 1)
}

func TestListController_DeleteRequiresSuperuser(t *testing.T) {
	backend := newFakeBackend()
	l := NewListController(backend, regular, quietLogger())

	_, err := l.Delete(context.Background(), 2, true)

	assert.ErrorIs(t, err, ErrSuperuserRequired)
	assert.Empty(t, backend.deleted)
}

func TestListController_Preview(t *testing.T) {
	backend := newFakeBackend()
	backend.tasks = []models.Task{{ID: 5, Subject: "VPN", HTMLFile: "/files/vpn.html"}}
	backend.html["/files/vpn.html"] = `<p>VPN down</p><script>alert(1)</script>`
	l := NewListController(backend, regular, quietLogger())
	require.NoError(t, l.Load(context.Background()))

	require.NoError(t, l.OpenPreview(context.Background(), 5))

	p := l.Preview()
	require.NotNil(t, p)
	assert.Equal(t, "VPN", p.Task.Subject)
	assert.Contains(t, p.HTML, "<p>VPN down</p>")
	assert.NotContains(t, p.HTML, "<script>")

	l.ClosePreview()
	assert.Nil(t, l.Preview())
}

func TestListController_PreviewKeepsInlineStyles(t *testing.T) {
	backend := newFakeBackend()
	backend.tasks = []models.Task{{ID: 6, HTMLFile: "/files/mail.html"}}
	backend.html["/files/mail.html"] = `<p class="alert" style="color: red" onclick="steal()">Disk full</p>`
	l := NewListController(backend, regular, quietLogger())
	require.NoError(t, l.Load(context.Background()))

	require.NoError(t, l.OpenPreview(context.Background(), 6))

	html := l.Preview().HTML
	assert.Contains(t, html, `class="alert"`)
	assert.Contains(t, html, `style="color: red"`)
	assert.NotContains(t, html, "onclick")
}

func TestListController_PreviewUnknownTask(t *testing.T) {
	l := NewListController(newFakeBackend(), regular, quietLogger())

	err := l.OpenPreview(context.Background(), 404)

	assert.Equal(t, http.StatusNotFound, apierrors.StatusOf(err))
	assert.Nil(t, l.Preview())
}
