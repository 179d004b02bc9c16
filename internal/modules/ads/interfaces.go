package ads

import (
	"context"

	"plaiful/internal/domain"
	"plaiful/internal/repository"
)

type AdRepository interface {
	FindActive(ctx context.Context, c repository.AdCriteria) (*domain.Ad, error)
	List(ctx context.Context, p repository.AdFilterParams) ([]domain.Ad, int64, error)
	GetByID(ctx context.Context, id string) (*domain.Ad, error)
	Create(ctx context.Context, ad *domain.Ad) error
	Update(ctx context.Context, ad *domain.Ad) error
	Delete(ctx context.Context, id string) error
}

type CategoryRepository interface {
	BySlugs(ctx context.Context, slugs []string) ([]domain.Category, error)
}
