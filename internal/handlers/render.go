package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-ui/internal/controllers"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/middleware"
)

// Page templates
const (
	templateLogin  = "login.tmpl"
	templateSignup = "signup.tmpl"
	templateList   = "list.tmpl"
	templateCreate = "create.tmpl"
	templateEdit   = "edit.tmpl"
	templateDetail = "detail.tmpl"
	templateDelete = "delete.tmpl"
)

// pageData returns the template data every page shares.
func pageData(c *gin.Context, title string) gin.H {
	data := gin.H{
		"Title":  title,
		"Fields": map[string]string{},
	}
	if sess, ok := middleware.GetSession(c); ok {
		user := sess.User
		data["User"] = &user
	}
	return data
}

// withError puts the banner and field messages for err into data and
// returns the status the page should be rendered with.
func withError(data gin.H, err error) int {
	apiErr := apierrors.Describe(err)
	data["Error"] = apiErr

	var validationErr *apierrors.ValidationError
	if errors.As(err, &validationErr) {
		data["Fields"] = validationErr.Fields
	}
	return apiErr.Status
}

// navigate executes a controller's Navigation. Stay writes nothing.
func navigate(c *gin.Context, nav controllers.Navigation) {
	switch nav.Kind {
	case controllers.Navigate:
		c.Redirect(http.StatusSeeOther, nav.Target)
	case controllers.Reload:
		c.Header("Cache-Control", "no-store")
		c.Redirect(http.StatusSeeOther, nav.Target)
	}
}

// toLoginOnAuth sends the browser to the login page when err is an
// AuthError. The façade has already cleared the session.
func toLoginOnAuth(c *gin.Context, err error) bool {
	if !apierrors.IsAuth(err) {
		return false
	}
	navigate(c, controllers.ToLogin)
	return true
}

// fail renders the error page for failures that leave no form to go back to.
func fail(c *gin.Context, err error) {
	if toLoginOnAuth(c, err) {
		return
	}
	apierrors.RespondWithError(c, apierrors.Describe(err))
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Issue tracker UI is running",
	})
}
