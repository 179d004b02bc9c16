package search

import (
	"context"

	"plaiful/internal/domain"
	"plaiful/internal/repository"
)

type ToolRepository interface {
	Search(ctx context.Context, f repository.ToolFilters) ([]domain.Tool, int64, error)
	ListPublished(ctx context.Context) ([]domain.Tool, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Tool, error)
	Alternatives(ctx context.Context, id string, limit int) ([]domain.Tool, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Category, error)
}
