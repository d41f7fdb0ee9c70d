package server

import (
	"net/http"

	"github.com/cozy-creator/house3d/internal/api"
	"github.com/cozy-creator/house3d/internal/api/middleware"
	"github.com/cozy-creator/house3d/internal/app"
	"github.com/gin-gonic/gin"
)

func (s *Server) SetupRoutes(app *app.App) {
	// Health check endpoint
	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := s.ginEngine.Group("/api/v1")

	// Authentication middleware
	apiV1.Use(handlerWrapper(app, middleware.AuthenticationMiddleware))

	apiV1.POST("/projects", handlerWrapper(app, api.CreateProjectHandler))
	apiV1.GET("/projects", handlerWrapper(app, api.ListProjectsHandler))
	apiV1.GET("/projects/:id", handlerWrapper(app, api.GetProjectHandler))
	apiV1.DELETE("/projects/:id", handlerWrapper(app, api.DeleteProjectHandler))
	apiV1.GET("/projects/:id/events", handlerWrapper(app, api.ListProjectEventsHandler))
}

func handlerWrapper(app *app.App, f func(c *gin.Context)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("app", app)
		f(ctx)
	}
}
