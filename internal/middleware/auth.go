package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"github.com/yukikurage/issue-tracker-ui/internal/session"
)

// RequireSession checks that the browser holds a live session and sends it
// to the login page otherwise.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c).Load()
		if !ok {
			c.Redirect(http.StatusSeeOther, constants.RouteLogin)
			c.Abort()
			return
		}

		// Store the session in context for easy access in handlers
		c.Set(constants.ContextKeySession, sess)
		c.Next()
	}
}

// RequireSuperuser must run after RequireSession.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, constants.RouteLogin)
			c.Abort()
			return
		}

		if !sess.User.IsSuperuser {
			apierrors.Forbidden(c, "Only superusers can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetSession retrieves the current session from context
func GetSession(c *gin.Context) (models.Session, bool) {
	value, exists := c.Get(constants.ContextKeySession)
	if !exists {
		return models.Session{}, false
	}

	sess, ok := value.(models.Session)
	if !ok || !sess.Authenticated() {
		return models.Session{}, false
	}
	return sess, true
}
