package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	maxResponseBytes = 8 << 20
	maxErrorBody     = 512
)

// call describes one backend request.
type call struct {
	op          string
	method      string
	target      *url.URL
	body        io.Reader
	contentType string
	// auth attaches the bearer token and enables the 401 handler.
	auth bool
	// mainService marks requests to the main service. With auth set, a 401
	// answer ends the session.
	mainService bool
}

func (f *Facade) mainCall(op, method, path string) call {
	return call{
		op:          op,
		method:      method,
		target:      f.client.base.JoinPath(path),
		auth:        true,
		mainService: true,
	}
}

func (c call) withQuery(q url.Values) call {
	target := *c.target
	target.RawQuery = q.Encode()
	c.target = &target
	return c
}

func (c call) withJSON(v any) (call, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return c, err
	}
	c.body = bytes.NewReader(data)
	c.contentType = contentTypeJSON
	return c, nil
}

func (c call) withForm(form url.Values) call {
	c.body = bytes.NewBufferString(form.Encode())
	c.contentType = contentTypeForm
	return c
}

// send performs the request and returns the raw 2xx body.
func (f *Facade) send(ctx context.Context, c call) ([]byte, error) {
	log := f.client.log.WithFields(logrus.Fields{
		"operation": c.op,
		"method":    c.method,
		"url":       c.target.Redacted(),
	})

	req, err := http.NewRequestWithContext(ctx, c.method, c.target.String(), c.body)
	if err != nil {
		return nil, &apierrors.NetworkError{Op: c.op, Err: err}
	}
	if c.mainService {
		req.Header.Set("Accept", contentTypeJSON)
	}
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	}
	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set(constants.HeaderRequestID, id)
	}
	if c.auth && f.store != nil {
		if sess, ok := f.store.Load(); ok {
			req.Header.Set("Authorization", "Bearer "+sess.Token)
		}
	}

	resp, err := f.client.http.Do(req)
	if err != nil {
		log.WithError(err).Error("backend request failed")
		return nil, &apierrors.NetworkError{Op: c.op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.WithError(err).Error("failed to read backend response")
		return nil, &apierrors.NetworkError{Op: c.op, Err: err}
	}

	log = log.WithField("status", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized && c.mainService {
		if !c.auth {
			log.Warn("backend rejected credentials")
			return nil, authError(c.op, body)
		}
		log.Warn("backend rejected token, clearing session")
		return nil, f.unauthorized(c.op, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorf("HTTP error: %d", resp.StatusCode)
		return nil, &apierrors.HTTPError{Op: c.op, Status: resp.StatusCode, Body: errorDetail(body)}
	}

	log.Debug("backend request completed")
	return body, nil
}

// do sends c and decodes a JSON response into out when out is non-nil.
func (f *Facade) do(ctx context.Context, c call, out any) error {
	body, err := f.send(ctx, c)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		f.client.log.WithField("operation", c.op).WithError(err).Error("failed to decode backend response")
		return &apierrors.DecodeError{Op: c.op, Err: err}
	}
	return nil
}

// unauthorized ends the session. It runs once per failing response.
func (f *Facade) unauthorized(op string, body []byte) error {
	if f.store != nil {
		if err := f.store.Clear(); err != nil {
			f.client.log.WithField("operation", op).WithError(err).Error("failed to clear session")
		}
	}
	if f.client.onUnauthorized != nil {
		f.client.onUnauthorized(op)
	}
	return authError(op, body)
}

// authError wraps a 401 answer. Anonymous calls (login, signup) get it
// without touching the session.
func authError(op string, body []byte) error {
	return &apierrors.AuthError{HTTPError: &apierrors.HTTPError{
		Op:     op,
		Status: http.StatusUnauthorized,
		Body:   errorDetail(body),
	}}
}

// errorDetail prefers the "detail" string error bodies carry and falls back
// to a truncated raw body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			return detail
		}
		return truncate(string(payload.Detail))
	}
	return truncate(string(bytes.TrimSpace(body)))
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
