// Package newsletter records email subscriptions.
package newsletter

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"plaiful/internal/domain"
	"plaiful/internal/pkg/response"
	"plaiful/internal/pkg/validator"
)

type SubscriberRepository interface {
	Create(ctx context.Context, s *domain.Subscriber) error
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=191"`
}

type Service struct {
	subscribers SubscriberRepository
}

func NewService(subscribers SubscriberRepository) *Service {
	return &Service{subscribers: subscribers}
}

// Subscribe stores the address. Subscribing twice succeeds.
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.Check(req); err != nil {
		return err
	}
	if err := s.subscribers.Create(ctx, &domain.Subscriber{Email: req.Email}); err != nil {
		return err
	}
	zap.L().Info("newsletter subscription", zap.String("domain", emailDomain(req.Email)))
	return nil
}

func emailDomain(email string) string {
	_, d, _ := strings.Cut(email, "@")
	return d
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the subscribe endpoint behind limit.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup, limit gin.HandlerFunc) {
	v1.POST("/newsletter", limit, h.Subscribe)
}

// Subscribe
// @Summary		Subscribe to the newsletter
// @Description	Limited to 2 requests per IP per day.
// @Tags		Newsletter
// @Param		request	body	SubscribeRequest	true	"Email"
// @Success		200	{object}	map[string]interface{}
// @Failure		429	{object}	map[string]interface{}	"RATE_LIMITED"
// @Router		/newsletter [POST]
func (h *Handler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.Subscribe(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subscribed": true})
}
