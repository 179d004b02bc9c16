package tools

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plaiful/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the public tool routes. submitLimit guards
// submissions.
func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, submitLimit gin.HandlerFunc) {
	tools := v1.Group("/tools")
	{
		tools.GET("", h.SearchTools)
		tools.GET("/slugs", h.FindToolSlugs)
		tools.GET("/:slug", h.FindToolBySlug)
		tools.POST("", submitLimit, h.SubmitTool)

		tools.POST("/:slug/impression", h.IncrementImpression)
		tools.POST("/:slug/view", h.IncrementView)
		tools.POST("/:slug/click", h.IncrementClick)
	}
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/tools/:id/schedule", h.ScheduleTool)
	admin.GET("/analytics/tools/:slug", h.GetToolAnalytics)
}

// SearchTools lists published tools.
// @Summary		Search tools
// @Description	Filters published tools by text, category and pricing. Without sort, higher tiers come first, then newer tools.
// @Tags		Tools
// @Param		q			query	string	false	"Substring of name, description or content"
// @Param		category	query	string	false	"Category slug"
// @Param		pricing		query	string	false	"Comma separated: Free, Freemium, Paid"
// @Param		sort		query	string	false	"latest | oldest | az | za"
// @Param		page		query	int		false	"Page (default 1)"
// @Param		per_page	query	int		false	"Page size (default 20, max 100)"
// @Success		200	{object}	ToolPage
// @Router		/tools [GET]
func (h *Handler) SearchTools(c *gin.Context) {
	var p SearchParams
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	page, err := h.service.SearchTools(c.Request.Context(), p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

func (h *Handler) FindToolSlugs(c *gin.Context) {
	slugs, err := h.service.FindToolSlugs(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"slugs": slugs})
}

func (h *Handler) FindToolBySlug(c *gin.Context) {
	tool, err := h.service.FindToolBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tool": tool})
}

// SubmitTool
// @Summary		Submit a tool
// @Description	Stores the tool as a draft for review. Limited to 3 submissions per IP per day.
// @Tags		Tools
// @Param		request	body	SubmitToolRequest	true	"Tool"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}	"VALIDATION_ERROR"
// @Failure		409	{object}	map[string]interface{}	"DUPLICATE"
// @Failure		429	{object}	map[string]interface{}	"RATE_LIMITED"
// @Router		/tools [POST]
func (h *Handler) SubmitTool(c *gin.Context) {
	var req SubmitToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	tool, err := h.service.SubmitTool(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"slug": tool.Slug, "status": tool.Status})
}

func (h *Handler) ScheduleTool(c *gin.Context) {
	var req ScheduleToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	tool, err := h.service.ScheduleTool(c.Request.Context(), c.Param("id"), req)
	if errors.Is(err, ErrNotSchedulable) {
		response.Error(c, http.StatusConflict, "INVALID_STATUS", "Published tools cannot be scheduled")
		return
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tool": tool})
}

func (h *Handler) IncrementImpression(c *gin.Context) {
	h.counted(c, h.service.IncrementImpression(c.Request.Context(), c.Param("slug")))
}

func (h *Handler) IncrementView(c *gin.Context) {
	h.counted(c, h.service.IncrementView(c.Request.Context(), c.Param("slug"), c.ClientIP()))
}

func (h *Handler) IncrementClick(c *gin.Context) {
	h.counted(c, h.service.IncrementClick(c.Request.Context(), c.Param("slug"), c.ClientIP()))
}

func (h *Handler) counted(c *gin.Context, err error) {
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetToolAnalytics(c *gin.Context) {
	a, err := h.service.GetToolAnalytics(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}
