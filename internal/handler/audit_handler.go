package handler

import (
	"net/http"

	"affiliate/internal/middleware"
	"affiliate/internal/service"
	"affiliate/pkg/pagination"
	"affiliate/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuditHandler struct {
	auditService service.AuditService
	log          *zap.Logger
}

func NewAuditHandler(auditService service.AuditService, log *zap.Logger) *AuditHandler {
	return &AuditHandler{auditService: auditService, log: log}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	group := router.Group("/api/audit-logs")
	group.Use(auth.RequireUser(), auth.RequireWorkspace())
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs lists the workspace's audit trail, newest first
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        workspaceId  query     string  true   "Workspace ID"
// @Param        programId    query     string  false  "Only events of this program"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), actorFrom(c), c.Query("programId"), p.Page, p.Limit)
	if err != nil {
		writeError(c, h.log, err, "Failed to retrieve audit logs")
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}
