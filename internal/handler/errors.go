package handler

import (
	"net/http"

	"affiliate/internal/service"
	"affiliate/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// actorFrom returns the actor stored by RequireWorkspace
func actorFrom(c *gin.Context) service.Actor {
	actor, _ := service.ActorFromContext(c.Request.Context())
	return actor
}

// writeError renders err in the response envelope. Downstream failures are
// logged and answered with fallback.
func writeError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	status, body := response.FromError(err, fallback)
	if status >= http.StatusInternalServerError {
		log.Error(fallback,
			zap.String("path", c.FullPath()),
			zap.String("workspace_id", c.GetString("workspaceID")),
			zap.Error(err))
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
