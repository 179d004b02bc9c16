package auth

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

func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.POST("/login", h.Login)
}

// Login
// @Summary		Admin login
// @Description	Exchanges the configured admin credentials for a bearer token.
// @Tags		Auth
// @Param		request	body	LoginRequest	true	"Credentials"
// @Success		200	{object}	LoginResponse
// @Failure		401	{object}	map[string]interface{}	"INVALID_CREDENTIALS"
// @Failure		503	{object}	map[string]interface{}	"LOGIN_DISABLED"
// @Router		/admin/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, ErrLoginDisabled):
		response.Error(c, http.StatusServiceUnavailable, "LOGIN_DISABLED", "Admin login is not configured")
	case err != nil:
		response.FromError(c, err)
	default:
		response.Success(c, http.StatusOK, resp)
	}
}
