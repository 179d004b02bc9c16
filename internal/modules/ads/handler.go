package ads

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"plaiful/internal/domain"
	"plaiful/internal/pkg/response"
	"plaiful/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	v1.GET("/ads", h.FindAd)
	v1.GET("/ads/home", h.FindHomePageAds)
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/ads", h.ListAds)
	admin.GET("/ads/:id", h.GetAd)
	admin.POST("/ads", h.CreateAd)
	admin.PATCH("/ads/:id", h.UpdateAd)
	admin.DELETE("/ads/:id", h.DeleteAd)
}

// FindAd resolves one ad slot.
// @Summary		Resolve an ad slot
// @Description	Returns the newest active ad for the slot, or the fallback creative when none runs.
// @Tags		Ads
// @Param		type		query	string	true	"Homepage | ToolPage | BlogPost | CategoryPage | Banner"
// @Param		placement	query	string	false	"Agent | FloatingTop | HorizontalTop | ..."
// @Param		category	query	string	false	"Category slug"
// @Success		200	{object}	Slot
// @Router		/ads [GET]
func (h *Handler) FindAd(c *gin.Context) {
	typ, err := domain.ParseAdType(c.Query("type"))
	if err != nil {
		response.ValidationError(c, map[string]string{"type": "oneof"})
		return
	}

	criteria := Criteria{Type: typ, CategorySlug: strings.TrimSpace(c.Query("category"))}
	if raw := c.Query("placement"); raw != "" {
		p, err := domain.ParseAdPlacement(raw)
		if err != nil {
			response.ValidationError(c, map[string]string{"placement": "oneof"})
			return
		}
		criteria.Placement = &p
	}

	slot, err := h.service.Resolve(c.Request.Context(), criteria)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, slot)
}

// FindHomePageAds returns the four home page slots.
// @Summary		Home page ads
// @Tags		Ads
// @Success		200	{object}	HomePageAds
// @Router		/ads/home [GET]
func (h *Handler) FindHomePageAds(c *gin.Context) {
	home, err := h.service.FindHomePageAds(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, home)
}

// ListAds is the admin listing.
// @Summary		List ads
// @Tags		Admin - Ads
// @Security	BearerAuth
// @Param		page		query	int		false	"Page (default 1)"
// @Param		per_page	query	int		false	"Page size (default 20, max 100)"
// @Param		sort		query	string	false	"column.direction, e.g. starts_at.desc"
// @Param		name		query	string	false	"Name contains"
// @Param		type		query	string	false	"Comma separated ad types"
// @Param		placement	query	string	false	"Comma separated placements"
// @Param		from		query	string	false	"RFC3339, ads running at or after"
// @Param		to			query	string	false	"RFC3339, ads starting before"
// @Param		operator	query	string	false	"and | or"
// @Router		/admin/ads [GET]
func (h *Handler) ListAds(c *gin.Context) {
	params, fields := parseFilterParams(c)
	if len(fields) > 0 {
		response.ValidationError(c, fields)
		return
	}

	ads, total, err := h.service.FindAds(c.Request.Context(), params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	page, perPage := params.Page, params.PerPage
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	response.Success(c, http.StatusOK, AdListResponse{Ads: ads, Total: total, Page: page, PerPage: perPage})
}

func (h *Handler) GetAd(c *gin.Context) {
	ad, err := h.service.GetAd(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ad": ad})
}

// CreateAd
// @Summary		Create an ad
// @Description	Banner placements require image_url, width and height. Agent cards carry no image geometry.
// @Tags		Admin - Ads
// @Security	BearerAuth
// @Param		request	body	AdRequest	true	"Ad"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}	"VALIDATION_ERROR"
// @Router		/admin/ads [POST]
func (h *Handler) CreateAd(c *gin.Context) {
	var req AdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	ad, err := h.service.CreateAd(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"ad": ad})
}

func (h *Handler) UpdateAd(c *gin.Context) {
	var req AdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	ad, err := h.service.UpdateAd(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ad": ad})
}

func (h *Handler) DeleteAd(c *gin.Context) {
	if err := h.service.DeleteAd(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Ad deleted"})
}

func parseFilterParams(c *gin.Context) (repository.AdFilterParams, map[string]string) {
	fields := map[string]string{}
	p := repository.AdFilterParams{
		Page:     parseIntDefault(c.Query("page"), 1),
		PerPage:  parseIntDefault(c.Query("per_page"), 20),
		Sort:     c.Query("sort"),
		Name:     c.Query("name"),
		Operator: strings.ToLower(c.DefaultQuery("operator", "and")),
	}
	if p.Operator != "and" && p.Operator != "or" {
		fields["operator"] = "oneof"
	}

	for _, raw := range splitCSV(c.Query("type")) {
		t, err := domain.ParseAdType(raw)
		if err != nil {
			fields["type"] = "oneof"
			continue
		}
		p.Types = append(p.Types, t)
	}
	for _, raw := range splitCSV(c.Query("placement")) {
		pl, err := domain.ParseAdPlacement(raw)
		if err != nil {
			fields["placement"] = "oneof"
			continue
		}
		p.Placements = append(p.Placements, pl)
	}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fields["from"] = "datetime"
		} else {
			t = t.UTC()
			p.From = &t
		}
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fields["to"] = "datetime"
		} else {
			t = t.UTC()
			p.To = &t
		}
	}
	return p, fields
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
