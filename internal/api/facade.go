package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"github.com/yukikurage/issue-tracker-ui/internal/session"
)

// Facade is a Client bound to one browser session.
type Facade struct {
	client *Client
	store  session.Store
}

// LoginResponse is what the token endpoint returns.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

// CreateTaskInput is the multipart payload of a new task.
type CreateTaskInput struct {
	CreatorName  string
	AssignerName string
	Subject      string
	Criticality  models.Criticality
	Status       models.TaskStatus
	ThreadID     string
	FileName     string
	File         io.Reader
}

// UpdateTaskInput carries a partial update. Empty fields are not sent.
type UpdateTaskInput struct {
	AssignerName string
	Subject      string
	Criticality  models.Criticality
	Status       models.TaskStatus
}

// SignUp registers a new account. No token is sent.
func (f *Facade) SignUp(ctx context.Context, creds models.Credentials) (*models.User, error) {
	c := f.mainCall("api.SignUp", http.MethodPost, "api/users/signup")
	c.auth = false
	c, err := c.withJSON(map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode signup request: %w", err)
	}

	var user models.User
	if err := f.do(ctx, c, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for an access token. No token is sent.
func (f *Facade) Login(ctx context.Context, creds models.Credentials) (*LoginResponse, error) {
	c := f.mainCall("api.Login", http.MethodPost, "token").withForm(url.Values{
		"username": {creds.Username},
		"password": {creds.Password},
	})
	c.auth = false

	var resp LoginResponse
	if err := f.do(ctx, c, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &apierrors.DecodeError{Op: c.op, Err: fmt.Errorf("access_token missing")}
	}
	return &resp, nil
}

// ListTasks returns one page of tasks matching filter.
func (f *Facade) ListTasks(ctx context.Context, filter models.TaskFilter) (*models.TaskPage, error) {
	c := f.mainCall("api.ListTasks", http.MethodGet, "api/tasks/").withQuery(filter.Query())

	body, err := f.send(ctx, c)
	if err != nil {
		return nil, err
	}

	page, err := decodeTaskPage(body, filter)
	if err != nil {
		f.client.log.WithField("operation", c.op).WithError(err).Error("failed to decode backend response")
		return nil, &apierrors.DecodeError{Op: c.op, Err: err}
	}
	return page, nil
}

// decodeTaskPage accepts {"items":[...],"total":n} and a bare array. A bare
// array carries no total, so the total is estimated: a full page implies at
// least one more.
func decodeTaskPage(body []byte, filter models.TaskFilter) (*models.TaskPage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []models.Task
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		total := filter.Skip + len(items)
		if filter.Limit > 0 && len(items) >= filter.Limit {
			total++
		}
		return &models.TaskPage{Items: items, Total: total}, nil
	}

	var page models.TaskPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []models.Task{}
	}
	return &page, nil
}

// GetTask fetches one task.
func (f *Facade) GetTask(ctx context.Context, id uint64) (*models.Task, error) {
	c := f.mainCall("api.GetTask", http.MethodGet, taskPath(id))

	var task models.Task
	if err := f.do(ctx, c, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask uploads the task fields and its HTML file as one multipart body.
func (f *Facade) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	const op = "api.CreateTask"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"creator_name", in.CreatorName},
		{"assigner_name", in.AssignerName},
		{"subject", in.Subject},
		{"criticality", string(in.Criticality)},
		{"status", string(in.Status)},
		{"thread_id", in.ThreadID},
	}
	for _, field := range fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, fmt.Errorf("%s: failed to write field %s: %w", op, field.name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="html_file"; filename=%q`, in.FileName))
	header.Set("Content-Type", "text/html")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create file part: %w", op, err)
	}
	if in.File != nil {
		if _, err := io.Copy(part, in.File); err != nil {
			return nil, fmt.Errorf("%s: failed to copy file: %w", op, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: failed to finish multipart body: %w", op, err)
	}

	c := f.mainCall(op, http.MethodPost, "api/tasks/")
	c.body = &buf
	c.contentType = w.FormDataContentType()

	var task models.Task
	if err := f.do(ctx, c, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask sends the non-empty fields of in as a URL-encoded partial update.
func (f *Facade) UpdateTask(ctx context.Context, id uint64, in UpdateTaskInput) (*models.Task, error) {
	form := url.Values{}
	setIfPresent(form, "assigner_name", in.AssignerName)
	setIfPresent(form, "subject", in.Subject)
	setIfPresent(form, "criticality", string(in.Criticality))
	setIfPresent(form, "status", string(in.Status))

	c := f.mainCall("api.UpdateTask", http.MethodPut, taskPath(id)).withForm(form)

	var task models.Task
	if err := f.do(ctx, c, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task. Only superusers are allowed to by the backend.
func (f *Facade) DeleteTask(ctx context.Context, id uint64) error {
	return f.do(ctx, f.mainCall("api.DeleteTask", http.MethodDelete, taskPath(id)), nil)
}

// ListUsers returns the user directory.
func (f *Facade) ListUsers(ctx context.Context) ([]models.DirectoryEntry, error) {
	var users []models.DirectoryEntry
	if err := f.do(ctx, f.mainCall("api.ListUsers", http.MethodGet, "api/users/"), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FetchRenderedHTML downloads a task's HTML from the file host. The bearer
// token is never sent there and a 401 from it does not end the session.
func (f *Facade) FetchRenderedHTML(ctx context.Context, reference string) (string, error) {
	const op = "api.FetchRenderedHTML"

	target, err := f.client.resolveFileReference(reference)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	body, err := f.send(ctx, call{op: op, method: http.MethodGet, target: target})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) resolveFileReference(reference string) (*url.URL, error) {
	ref, err := url.Parse(reference)
	if err != nil {
		return nil, fmt.Errorf("invalid html reference: %w", err)
	}
	if ref.IsAbs() || ref.Host != "" {
		if ref.Host != c.files.Host {
			return nil, ErrForeignReference
		}
		if ref.Scheme == "" {
			ref.Scheme = c.files.Scheme
		}
		return ref, nil
	}
	if ref.Path == "" {
		return nil, fmt.Errorf("empty html reference")
	}

	target := c.files.JoinPath(ref.Path)
	target.RawQuery = ref.RawQuery
	return target, nil
}

func taskPath(id uint64) string {
	return "api/tasks/" + strconv.FormatUint(id, 10)
}

func setIfPresent(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}
