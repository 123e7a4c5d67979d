// Package api is the only place that talks to the backend services: the main
// task service and the file host that stores rendered task HTML.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/session"
)

var (
	ErrForeignReference = errors.New("html reference points outside the file host")
	ErrMissingBaseURL   = errors.New("base url is required")
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	FileServerURL string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *logrus.Entry
	// OnUnauthorized runs once for every 401 the main service returns,
	// after the session has been cleared.
	OnUnauthorized func(op string)
}

// Client holds what is shared by every request: base URLs, the HTTP client
// and the logger. It is safe for concurrent use.
type Client struct {
	base           *url.URL
	files          *url.URL
	http           *http.Client
	log            *logrus.Entry
	onUnauthorized func(op string)
}

// New validates the base URLs and builds a Client.
func New(opts Options) (*Client, error) {
	base, err := parseBase(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("main service: %w", err)
	}
	files, err := parseBase(opts.FileServerURL)
	if err != nil {
		return nil, fmt.Errorf("file host: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Client{
		base:           base,
		files:          files,
		http:           httpClient,
		log:            log.WithField("component", "api"),
		onUnauthorized: opts.OnUnauthorized,
	}, nil
}

// WithSession binds the client to one browser session. Tokens are read from
// store and store is cleared when the main service answers 401.
func (c *Client) WithSession(store session.Store) *Facade {
	return &Facade{client: c, store: store}
}

func parseBase(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrMissingBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

type requestIDKey struct{}

// WithRequestID stores id in ctx so it is forwarded to the backend.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id stored by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
