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

type PartnerHandler struct {
	partners  service.PartnerService
	approvals service.PartnerApprovalService
	log       *zap.Logger
}

func NewPartnerHandler(partners service.PartnerService, approvals service.PartnerApprovalService, log *zap.Logger) *PartnerHandler {
	return &PartnerHandler{partners: partners, approvals: approvals, log: log}
}

func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	partners := router.Group("/api/partners")
	partners.Use(auth.RequireUser(), auth.RequireWorkspace())
	{
		partners.GET("", h.ListPartners)
		partners.GET("/:partnerId", h.GetPartner)
		partners.POST("/approve", h.ApprovePartner)
		partners.POST("/reject", h.RejectPartner)
	}
}

// ListPartners returns the enrolled partners of a program with their links
// @Summary      List enrolled partners
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        workspaceId  query     string  true   "Workspace ID"
// @Param        programId    query     string  true   "Program ID"
// @Param        status       query     string  false  "Enrollment status: pending, approved, rejected, invited, declined, banned"
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response{data=[]service.EnrolledPartnerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/partners [get]
func (h *PartnerHandler) ListPartners(c *gin.Context) {
	p := pagination.Parse(c)
	partners, total, err := h.partners.ListPartners(c.Request.Context(), actorFrom(c), service.PartnerFilter{
		ProgramID: c.Query("programId"),
		Status:    c.Query("status"),
		Page:      p.Page,
		Limit:     p.Limit,
	})
	if err != nil {
		writeError(c, h.log, err, "Failed to list partners.")
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, partners, p.Page, p.Limit, total))
}

// GetPartner returns one enrolled partner
// @Summary      Get enrolled partner
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        workspaceId  query     string  true  "Workspace ID"
// @Param        programId    query     string  true  "Program ID"
// @Param        partnerId    path      string  true  "Partner ID"
// @Success      200  {object}  response.Response{data=service.EnrolledPartnerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/partners/{partnerId} [get]
func (h *PartnerHandler) GetPartner(c *gin.Context) {
	partner, err := h.partners.GetPartner(c.Request.Context(), actorFrom(c), c.Query("programId"), c.Param("partnerId"))
	if err != nil {
		writeError(c, h.log, err, "Failed to load partner.")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// ApprovePartner approves a pending partner and assigns them a link
// @Summary      Approve partner
// @Description  Sets the enrollment to approved and binds the link to the partner in one transaction. Email, audit, analytics and webhook side effects are queued.
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        workspaceId  query  string                         true  "Workspace ID"
// @Param        payload      body   service.ApprovePartnerRequest  true  "Approval payload"
// @Success      200  {object}  response.Response{data=service.ActionResult}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/partners/approve [post]
func (h *PartnerHandler) ApprovePartner(c *gin.Context) {
	var req service.ApprovePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.approvals.Approve(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, h.log, err, "Failed to approve partner.")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RejectPartner rejects a partner application
// @Summary      Reject partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        workspaceId  query  string                        true  "Workspace ID"
// @Param        payload      body   service.RejectPartnerRequest  true  "Rejection payload"
// @Success      200  {object}  response.Response{data=service.ActionResult}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/partners/reject [post]
func (h *PartnerHandler) RejectPartner(c *gin.Context) {
	var req service.RejectPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.approvals.Reject(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, h.log, err, "Failed to reject partner.")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
