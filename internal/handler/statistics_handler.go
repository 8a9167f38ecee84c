package handler

import (
	"net/http"

	"affiliate/internal/middleware"
	"affiliate/internal/service"
	"affiliate/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	log               *zap.Logger
}

func NewStatisticsHandler(statisticsService service.StatisticsService, log *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, log: log}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	statsGroup := router.Group("/api/programs/:programId/statistics")
	statsGroup.Use(auth.RequireUser(), auth.RequireWorkspace())
	{
		statsGroup.GET("", h.GetStatistics)
	}
}

// @Summary      Get program statistics
// @Description  Enrollment counts by status, sale and payout totals, top partners by sale amount
// @Tags         programs
// @Produce      json
// @Param        workspaceId  query  string  true  "Workspace ID"
// @Param        programId    path   string  true  "Program ID"
// @Success      200  {object}  response.Response{data=model.ProgramStatistics}
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/programs/{programId}/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.statisticsService.GetProgramStatistics(c.Request.Context(), actorFrom(c), c.Param("programId"))
	if err != nil {
		writeError(c, h.log, err, "Failed to load program statistics.")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
