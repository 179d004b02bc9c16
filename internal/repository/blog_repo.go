package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"plaiful/internal/domain"
)

type BlogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

func (r *BlogRepository) Create(ctx context.Context, p *domain.BlogPost) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *BlogRepository) Update(ctx context.Context, p *domain.BlogPost) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *BlogRepository) GetByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	var p domain.BlogPost
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *BlogRepository) visible(ctx context.Context, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.BlogPost{}).
		Where("status = ? AND published_at <= ?", domain.PostPublished, now)
}

func (r *BlogRepository) FindPublishedBySlug(ctx context.Context, slug string, now time.Time) (*domain.BlogPost, error) {
	var p domain.BlogPost
	if err := r.visible(ctx, now).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *BlogRepository) ListPublished(ctx context.Context, now time.Time, limit, offset int) ([]domain.BlogPost, int64, error) {
	var total int64
	if err := r.visible(ctx, now).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []domain.BlogPost
	err := r.visible(ctx, now).
		Order("published_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, total, err
}

func (r *BlogRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.BlogPost{}).
		Where("status = ? AND published_at <= ?", domain.PostScheduled, now).
		Update("status", domain.PostPublished)
	return res.RowsAffected, res.Error
}

func (r *BlogRepository) SitemapEntries(ctx context.Context, now time.Time) ([]SitemapEntry, error) {
	var entries []SitemapEntry
	err := r.visible(ctx, now).
		Select("slug, updated_at").
		Order("slug ASC").
		Scan(&entries).Error
	return entries, err
}

type SubscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Create stores the subscriber; an existing email is left untouched.
func (r *SubscriberRepository) Create(ctx context.Context, s *domain.Subscriber) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(s).Error
}
