package tools

import (
	"time"

	"plaiful/internal/domain"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type SearchParams struct {
	Query        string   `form:"q"`
	Category     string   `form:"category"`
	PricingTypes []string `form:"pricing"`
	Sort         string   `form:"sort"`
	Page         int      `form:"page"`
	PerPage      int      `form:"per_page"`
}

type ToolPage struct {
	Tools      []domain.Tool `json:"tools"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	TotalPages int           `json:"total_pages"`
}

type SubmitToolRequest struct {
	Name        string   `json:"name" validate:"required,max=120"`
	WebsiteURL  string   `json:"website_url" validate:"required,url"`
	Tagline     string   `json:"tagline" validate:"max=160"`
	Description string   `json:"description" validate:"required,max=2000"`
	Email       string   `json:"email" validate:"required,email"`
	PricingType string   `json:"pricing_type" validate:"omitempty,oneof=Free Freemium Paid"`
	Categories  []string `json:"categories" validate:"max=5,dive,required"`
}

type ScheduleToolRequest struct {
	PublishAt time.Time `json:"publish_at" validate:"required"`
	Tier      string    `json:"tier" validate:"omitempty,oneof=Free Featured Premium"`
}
