package handler

import (
	"net/http"

	"affiliate/internal/middleware"
	"affiliate/internal/service"
	"affiliate/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	links service.LinkService
	log   *zap.Logger
}

func NewLinkHandler(links service.LinkService, log *zap.Logger) *LinkHandler {
	return &LinkHandler{links: links, log: log}
}

func (h *LinkHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	links := router.Group("/api/links")
	links.Use(auth.RequireUser(), auth.RequireWorkspace())
	{
		links.POST("", h.CreateLink)
	}
}

// CreateLink creates a short link
// @Summary      Create link
// @Tags         links
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        workspaceId  query  string                     true  "Workspace ID"
// @Param        payload      body   service.CreateLinkRequest  true  "Link payload"
// @Success      201  {object}  response.Response{data=service.LinkResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req service.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	link, err := h.links.CreateLink(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, h.log, err, "Failed to create link")
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, link))
}
