package api

import (
	"errors"
	"net/http"

	"github.com/cozy-creator/house3d/internal/app"
	"github.com/cozy-creator/house3d/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps service errors to responses. Unknown errors are logged
// and reported without detail.
func writeError(c *gin.Context, err error) {
	var verr *types.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": verr.Error(),
			"field":   verr.Field,
			"reason":  verr.Reason,
		})
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
	case errors.Is(err, types.ErrDispatch):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
	default:
		app := c.MustGet("app").(*app.App)
		app.Logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
