package repository

import (
	"context"

	"gorm.io/gorm"

	"plaiful/internal/domain"
)

const categoryToolCountSQL = `categories.*, (SELECT COUNT(*) FROM tool_categories tc
	JOIN tools t ON t.id = tc.tool_id
	WHERE tc.category_id = categories.id AND t.status = ?) AS tool_count`

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories with their published tool counts.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := r.db.WithContext(ctx).
		Select(categoryToolCountSQL, domain.ToolPublished).
		Order("categories.name ASC").
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) Search(ctx context.Context, query string, limit int) ([]domain.Category, error) {
	var categories []domain.Category
	pattern := containsPattern(query)
	err := r.db.WithContext(ctx).
		Select(categoryToolCountSQL, domain.ToolPublished).
		Where("LOWER(categories.name) LIKE ?"+likeEscape+" OR LOWER(categories.slug) LIKE ?"+likeEscape, pattern, pattern).
		Order("categories.name ASC").
		Limit(limit).
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) BySlugs(ctx context.Context, slugs []string) ([]domain.Category, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	var categories []domain.Category
	err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepository) SitemapEntries(ctx context.Context) ([]SitemapEntry, error) {
	var entries []SitemapEntry
	err := r.db.WithContext(ctx).
		Model(&domain.Category{}).
		Select("slug, updated_at").
		Order("slug ASC").
		Scan(&entries).Error
	return entries, err
}

type TopicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) Create(ctx context.Context, t *domain.Topic) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TopicRepository) SitemapEntries(ctx context.Context) ([]SitemapEntry, error) {
	var entries []SitemapEntry
	err := r.db.WithContext(ctx).
		Model(&domain.Topic{}).
		Select("slug, updated_at").
		Order("slug ASC").
		Scan(&entries).Error
	return entries, err
}
