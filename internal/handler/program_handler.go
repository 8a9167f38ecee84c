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

// ProgramHandler serves the per-program reads behind the partner details sheet
type ProgramHandler struct {
	partners service.PartnerService
	payouts  service.PayoutService
	links    service.LinkService
	log      *zap.Logger
}

func NewProgramHandler(partners service.PartnerService, payouts service.PayoutService, links service.LinkService, log *zap.Logger) *ProgramHandler {
	return &ProgramHandler{partners: partners, payouts: payouts, links: links, log: log}
}

func (h *ProgramHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	programs := router.Group("/api/programs/:programId")
	programs.Use(auth.RequireUser(), auth.RequireWorkspace())
	{
		programs.GET("/applications/:applicationId", h.GetApplication)
		programs.GET("/payouts", h.ListPayouts)
		programs.GET("/links", h.ListLinks)
	}
}

// GetApplication returns a partner's program application
// @Summary      Get program application
// @Tags         programs
// @Security     BearerAuth
// @Produce      json
// @Param        workspaceId    query  string  true  "Workspace ID"
// @Param        programId      path   string  true  "Program ID"
// @Param        applicationId  path   string  true  "Application ID"
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/programs/{programId}/applications/{applicationId} [get]
func (h *ProgramHandler) GetApplication(c *gin.Context) {
	app, err := h.partners.GetApplication(c.Request.Context(), actorFrom(c), c.Param("programId"), c.Param("applicationId"))
	if err != nil {
		writeError(c, h.log, err, "Failed to load application.")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// ListPayouts returns a partner's latest payouts
// @Summary      List partner payouts
// @Tags         programs
// @Security     BearerAuth
// @Produce      json
// @Param        workspaceId  query  string  true   "Workspace ID"
// @Param        programId    path   string  true   "Program ID"
// @Param        partnerId    query  string  true   "Partner ID"
// @Param        pageSize     query  int     false  "At most 10"
// @Success      200  {object}  response.Response{data=[]service.PayoutResponse}
// @Router       /api/programs/{programId}/payouts [get]
func (h *ProgramHandler) ListPayouts(c *gin.Context) {
	payouts, err := h.payouts.ListPartnerPayouts(c.Request.Context(), actorFrom(c),
		c.Param("programId"), c.Query("partnerId"), pagination.SheetSize(c))
	if err != nil {
		writeError(c, h.log, err, "Failed to load payouts.")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payouts))
}

// ListLinks returns the links assigned to a partner in a program
// @Summary      List partner links
// @Tags         programs
// @Security     BearerAuth
// @Produce      json
// @Param        workspaceId  query  string  true   "Workspace ID"
// @Param        programId    path   string  true   "Program ID"
// @Param        partnerId    query  string  true   "Partner ID"
// @Param        pageSize     query  int     false  "At most 10"
// @Success      200  {object}  response.Response{data=[]service.LinkResponse}
// @Router       /api/programs/{programId}/links [get]
func (h *ProgramHandler) ListLinks(c *gin.Context) {
	links, err := h.links.ListPartnerLinks(c.Request.Context(), actorFrom(c),
		c.Param("programId"), c.Query("partnerId"), pagination.SheetSize(c))
	if err != nil {
		writeError(c, h.log, err, "Failed to load links.")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, links))
}
