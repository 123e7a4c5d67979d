package constants

// Session
const (
	SessionCookieName = "issue_tracker_session"
	SessionKeyToken   = "token"
	SessionKeyUser    = "user"
	SessionMaxAge     = 86400 * 7
)

// Context keys set by middleware
const (
	ContextKeySession   = "session"
	ContextKeyTaskID    = "task_id"
	ContextKeyRequestID = "request_id"
	ContextKeyLogger    = "logger"
)

// HeaderRequestID is forwarded to the backend so both logs share an id.
const HeaderRequestID = "X-Request-ID"

// Pagination
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Forms
const (
	SubjectMaxLength = 100
	FilterAll        = "All"
)

// Routes
const (
	RouteLogin  = "/login"
	RouteSignup = "/signup"
	RouteTasks  = "/tasks"
)
