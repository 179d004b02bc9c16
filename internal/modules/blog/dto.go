package blog

import (
	"time"

	"plaiful/internal/domain"
)

const (
	defaultPerPage = 12
	maxPerPage     = 50
)

type CreatePostRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Slug        string     `json:"slug" validate:"omitempty,max=191"`
	Description string     `json:"description" validate:"max=500"`
	Content     string     `json:"content" validate:"required"`
	ImageURL    string     `json:"image_url" validate:"omitempty,url"`
	Status      string     `json:"status" validate:"omitempty,oneof=Draft Scheduled Published Archived"`
	PublishedAt *time.Time `json:"published_at"`
}

// UpdatePostRequest changes only the fields that are present.
type UpdatePostRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
	Content     *string    `json:"content" validate:"omitempty,min=1"`
	ImageURL    *string    `json:"image_url" validate:"omitempty,url"`
	Status      *string    `json:"status" validate:"omitempty,oneof=Draft Scheduled Published Archived"`
	PublishedAt *time.Time `json:"published_at"`
}

type ListParams struct {
	Page    int `form:"page"`
	PerPage int `form:"per_page"`
}

type PostPage struct {
	Posts      []domain.BlogPost `json:"posts"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}
