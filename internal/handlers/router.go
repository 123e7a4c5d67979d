package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/api"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-ui/internal/errors"
	"github.com/yukikurage/issue-tracker-ui/internal/middleware"
	"github.com/yukikurage/issue-tracker-ui/internal/services"
	"github.com/yukikurage/issue-tracker-ui/internal/session"
	"github.com/yukikurage/issue-tracker-ui/internal/web"
)

// Dependencies are the long-lived values shared by every request.
type Dependencies struct {
	Client    *api.Client
	Suggester services.SubjectSuggester
	Sessions  sessions.Store
	Logger    *logrus.Entry
}

// NewRouter builds the browser-facing routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(session.Middleware(deps.Sessions))
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", web.Static())

	authHandler := NewAuthHandler(deps.Client)
	taskHandler := NewTaskHandler(deps.Client, deps.Suggester)

	// Health check endpoint
	r.GET("/health", Health)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, constants.RouteLogin)
	})

	// Auth routes (public)
	r.GET(constants.RouteLogin, authHandler.ShowLogin)
	r.POST(constants.RouteLogin, authHandler.Login)
	r.GET(constants.RouteSignup, authHandler.ShowSignup)
	r.POST(constants.RouteSignup, authHandler.Signup)
	r.POST("/logout", authHandler.Logout)

	// Task routes (protected)
	tasks := r.Group(constants.RouteTasks)
	tasks.Use(middleware.RequireSession())
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.GET("/new", middleware.RequireSuperuser(), taskHandler.NewTask)
		tasks.POST("", middleware.RequireSuperuser(), taskHandler.CreateTask)
		tasks.GET("/:id", middleware.RequireTaskID(), taskHandler.ShowTask)
		tasks.GET("/:id/edit", middleware.RequireTaskID(), taskHandler.EditTask)
		tasks.POST("/:id/edit", middleware.RequireTaskID(), taskHandler.UpdateTask)
		tasks.GET("/:id/delete", middleware.RequireSuperuser(), middleware.RequireTaskID(), taskHandler.ConfirmDelete)
		tasks.POST("/:id/delete", middleware.RequireSuperuser(), middleware.RequireTaskID(), taskHandler.DeleteTask)
	}

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "")
	})

	return r, nil
}
