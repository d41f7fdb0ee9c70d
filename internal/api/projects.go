package api

import (
	"errors"
	"net/http"

	"github.com/cozy-creator/house3d/internal/api/middleware"
	"github.com/cozy-creator/house3d/internal/app"
	"github.com/cozy-creator/house3d/internal/services/projects"
	"github.com/cozy-creator/house3d/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func CreateProjectHandler(c *gin.Context) {
	app := c.MustGet("app").(*app.App)
	ownerID := c.GetString(middleware.OwnerIDKey)

	var params projects.CreateParams
	contentType := c.ContentType()
	if contentType == "" {
		contentType = binding.MIMEJSON
	}

	switch contentType {
	case binding.MIMEMSGPACK, binding.MIMEMSGPACK2:
		if err := c.ShouldBindWith(&params, binding.MsgPack); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "failed to parse msgpack request body"})
			return
		}
	case binding.MIMEJSON:
		if err := c.ShouldBindWith(&params, binding.JSON); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "failed to parse json request body"})
			return
		}
	case binding.MIMEMultipartPOSTForm:
		var err error
		if params, err = bindMultipart(c, app); err != nil {
			writeError(c, err)
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "unsupported content type: " + contentType})
		return
	}

	project, err := app.ProjectService.CreateProject(c.Request.Context(), ownerID, params)
	if err != nil {
		if project != nil && errors.Is(err, types.ErrDispatch) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"message": "Project was created but generation could not be scheduled",
				"project": toProjectResponse(project),
			})
			return
		}

		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProjectResponse(project))
}

func ListProjectsHandler(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	list, err := app.ProjectService.ListProjects(c.Request.Context(), c.GetString(middleware.OwnerIDKey))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponses(list))
}

func GetProjectHandler(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	project, err := app.ProjectService.GetProject(c.Request.Context(), c.GetString(middleware.OwnerIDKey), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project))
}

func DeleteProjectHandler(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	if err := app.ProjectService.DeleteProject(c.Request.Context(), c.GetString(middleware.OwnerIDKey), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project removed"})
}

func ListProjectEventsHandler(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	events, err := app.ProjectService.ListProjectEvents(c.Request.Context(), c.GetString(middleware.OwnerIDKey), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	responses, err := toEventResponses(events)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses)
}
