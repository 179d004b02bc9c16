package blog

import (
	"context"
	"time"

	"plaiful/internal/domain"
)

type PostRepository interface {
	Create(ctx context.Context, p *domain.BlogPost) error
	Update(ctx context.Context, p *domain.BlogPost) error
	GetByID(ctx context.Context, id string) (*domain.BlogPost, error)
	FindPublishedBySlug(ctx context.Context, slug string, now time.Time) (*domain.BlogPost, error)
	ListPublished(ctx context.Context, now time.Time, limit, offset int) ([]domain.BlogPost, int64, error)
}
