package blog

import (
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

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	posts := v1.Group("/blog")
	{
		posts.GET("", h.ListPosts)
		posts.GET("/:slug", h.FindPost)
	}
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	posts := admin.Group("/blog")
	{
		posts.POST("", h.CreatePost)
		posts.PATCH("/:id", h.UpdatePost)
	}
}

// ListPosts
// @Summary		List blog posts
// @Tags		Blog
// @Param		page		query	int	false	"Page (default 1)"
// @Param		per_page	query	int	false	"Page size (default 12, max 50)"
// @Success		200	{object}	PostPage
// @Router		/blog [GET]
func (h *Handler) ListPosts(c *gin.Context) {
	var p ListParams
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	page, err := h.service.ListPosts(c.Request.Context(), p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

func (h *Handler) FindPost(c *gin.Context) {
	post, err := h.service.FindPost(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"post": post})
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"post": post})
}

func (h *Handler) UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"post": post})
}
