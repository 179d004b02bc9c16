package tools

import (
	"context"
	"time"

	"plaiful/internal/domain"
	"plaiful/internal/repository"
)

type ToolRepository interface {
	Search(ctx context.Context, f repository.ToolFilters) ([]domain.Tool, int64, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Tool, error)
	GetByID(ctx context.Context, id string) (*domain.Tool, error)
	Slugs(ctx context.Context) ([]string, error)
	Create(ctx context.Context, tool *domain.Tool) error
	Update(ctx context.Context, tool *domain.Tool) error
	Increment(ctx context.Context, slug string, c repository.Counter) error
	Analytics(ctx context.Context, slug string) (*repository.ToolAnalytics, error)
}

type CategoryRepository interface {
	BySlugs(ctx context.Context, slugs []string) ([]domain.Category, error)
}

// EngagementNotifier receives counter increments as they happen.
type EngagementNotifier interface {
	NotifyEngagement(slug string, kind repository.Counter, at time.Time)
}
