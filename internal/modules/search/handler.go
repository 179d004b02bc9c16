package search

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plaiful/internal/pkg/response"
	"plaiful/internal/ranking"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the search routes. aiLimit guards the ranked search.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup, aiLimit gin.HandlerFunc) {
	s := v1.Group("/search")
	{
		s.GET("/ai", aiLimit, h.AISearch)
		s.GET("/alternatives/:slug", h.SearchAlternatives)
		s.GET("/categories", h.SearchCategories)
	}
}

// AISearch
// @Summary		AI search
// @Description	Ranks published tools for a free-text query. Falls back to substring search with aiPowered=false when ranking fails. 20 requests per IP per hour.
// @Tags		Search
// @Param		q	query	string	true	"Query"
// @Success		200	{object}	Result
// @Failure		400	{object}	map[string]interface{}	"QUERY_REJECTED"
// @Failure		429	{object}	map[string]interface{}	"RATE_LIMITED"
// @Router		/search/ai [GET]
func (h *Handler) AISearch(c *gin.Context) {
	res, err := h.service.AISearch(c.Request.Context(), c.Query("q"))
	if errors.Is(err, ranking.ErrQueryRejected) {
		response.Error(c, http.StatusBadRequest, "QUERY_REJECTED", "This query cannot be processed")
		return
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) SearchAlternatives(c *gin.Context) {
	tools, err := h.service.SearchAlternatives(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tools": tools})
}

func (h *Handler) SearchCategories(c *gin.Context) {
	categories, err := h.service.SearchCategories(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}
