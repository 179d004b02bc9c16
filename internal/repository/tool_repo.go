package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"plaiful/internal/domain"
)

type ToolSort string

const (
	SortDefault ToolSort = ""
	SortLatest  ToolSort = "latest"
	SortOldest  ToolSort = "oldest"
	SortAZ      ToolSort = "az"
	SortZA      ToolSort = "za"
)

// ParseToolSort maps unknown keys to the default order.
func ParseToolSort(s string) ToolSort {
	switch ToolSort(strings.ToLower(strings.TrimSpace(s))) {
	case SortLatest:
		return SortLatest
	case SortOldest:
		return SortOldest
	case SortAZ:
		return SortAZ
	case SortZA:
		return SortZA
	}
	return SortDefault
}

type ToolFilters struct {
	Query        string
	Category     string
	PricingTypes []domain.PricingType
	Sort         ToolSort
	Limit        int
	Offset       int
}

type Counter string

const (
	CounterImpressions Counter = "impressions"
	CounterViews       Counter = "views"
	CounterClicks      Counter = "clicks"
)

type ToolAnalytics struct {
	Slug        string `json:"slug"`
	Impressions int64  `json:"impressions"`
	Views       int64  `json:"views"`
	Clicks      int64  `json:"clicks"`
}

type SitemapEntry struct {
	Slug      string
	UpdatedAt time.Time
}

var tierRankSQL = fmt.Sprintf("CASE tools.tier WHEN '%s' THEN %d WHEN '%s' THEN %d ELSE %d END",
	domain.TierPremium, domain.TierPremium.Rank(),
	domain.TierFeatured, domain.TierFeatured.Rank(),
	domain.TierFree.Rank())

type ToolRepository struct {
	db *gorm.DB
}

func NewToolRepository(db *gorm.DB) *ToolRepository {
	return &ToolRepository{db: db}
}

// Search returns one page of published tools matching f and the total number
// of matches.
func (r *ToolRepository) Search(ctx context.Context, f ToolFilters) ([]domain.Tool, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&domain.Tool{}).
			Where("tools.status = ?", domain.ToolPublished)

		if f.Category != "" {
			q = q.Where(`EXISTS (SELECT 1 FROM tool_categories tc
				JOIN categories c ON c.id = tc.category_id
				WHERE tc.tool_id = tools.id AND c.slug = ?)`, f.Category)
		}
		if len(f.PricingTypes) > 0 {
			q = q.Where("tools.pricing_type IN ?", f.PricingTypes)
		}
		if query := strings.TrimSpace(f.Query); query != "" {
			pattern := containsPattern(query)
			q = q.Where("(LOWER(tools.name) LIKE ?"+likeEscape+
				" OR LOWER(tools.description) LIKE ?"+likeEscape+
				" OR LOWER(tools.content) LIKE ?"+likeEscape+")",
				pattern, pattern, pattern)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := orderTools(base(), f.Sort)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var tools []domain.Tool
	if err := q.Preload("Categories").Find(&tools).Error; err != nil {
		return nil, 0, err
	}
	return tools, total, nil
}

func orderTools(q *gorm.DB, sort ToolSort) *gorm.DB {
	switch sort {
	case SortLatest:
		q = q.Order("tools.published_at DESC")
	case SortOldest:
		q = q.Order("tools.published_at ASC")
	case SortAZ:
		q = q.Order("tools.name ASC")
	case SortZA:
		q = q.Order("tools.name DESC")
	default:
		q = q.Order(tierRankSQL + " DESC").Order("tools.published_at DESC")
	}
	return q.Order("tools.id ASC")
}

// FindBySlug returns any tool that is not a draft.
func (r *ToolRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tool, error) {
	var tool domain.Tool
	err := r.db.WithContext(ctx).
		Where("slug = ? AND status <> ?", slug, domain.ToolDraft).
		Preload("Categories").
		Preload("Topics").
		First(&tool).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &tool, nil
}

func (r *ToolRepository) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	var tool domain.Tool
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Preload("Topics").
		First(&tool, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &tool, nil
}

func (r *ToolRepository) Slugs(ctx context.Context) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).
		Model(&domain.Tool{}).
		Where("status = ?", domain.ToolPublished).
		Order("slug ASC").
		Pluck("slug", &slugs).Error
	return slugs, err
}

// ListPublished loads every published tool with its categories in the default
// order. It feeds the ranking backends.
func (r *ToolRepository) ListPublished(ctx context.Context) ([]domain.Tool, error) {
	var tools []domain.Tool
	err := orderTools(r.db.WithContext(ctx).Model(&domain.Tool{}), SortDefault).
		Where("tools.status = ?", domain.ToolPublished).
		Preload("Categories").
		Find(&tools).Error
	return tools, err
}

// Alternatives returns published tools sharing at least one category with the
// tool identified by id.
func (r *ToolRepository) Alternatives(ctx context.Context, id string, limit int) ([]domain.Tool, error) {
	var tools []domain.Tool
	q := r.db.WithContext(ctx).
		Model(&domain.Tool{}).
		Where("tools.status = ? AND tools.id <> ?", domain.ToolPublished, id).
		Where(`EXISTS (SELECT 1 FROM tool_categories tc
			WHERE tc.tool_id = tools.id
			AND tc.category_id IN (SELECT category_id FROM tool_categories WHERE tool_id = ?))`, id)
	err := orderTools(q, SortDefault).
		Limit(limit).
		Preload("Categories").
		Find(&tools).Error
	return tools, err
}

func (r *ToolRepository) Create(ctx context.Context, tool *domain.Tool) error {
	return r.db.WithContext(ctx).Create(tool).Error
}

func (r *ToolRepository) Update(ctx context.Context, tool *domain.Tool) error {
	return r.db.WithContext(ctx).Omit("Categories", "Topics").Save(tool).Error
}

// PublishDue flips scheduled tools whose publish moment has passed.
func (r *ToolRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Tool{}).
		Where("status = ? AND published_at <= ?", domain.ToolScheduled, now).
		Update("status", domain.ToolPublished)
	return res.RowsAffected, res.Error
}

// Increment bumps one engagement counter with a single UPDATE statement.
// Drafts are not public and never count.
func (r *ToolRepository) Increment(ctx context.Context, slug string, c Counter) error {
	col := string(c)
	res := r.db.WithContext(ctx).
		Model(&domain.Tool{}).
		Where("slug = ? AND status <> ?", slug, domain.ToolDraft).
		UpdateColumn(col, gorm.Expr(col+" + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ToolRepository) Analytics(ctx context.Context, slug string) (*ToolAnalytics, error) {
	var a ToolAnalytics
	err := r.db.WithContext(ctx).
		Model(&domain.Tool{}).
		Select("slug, impressions, views, clicks").
		Where("slug = ?", slug).
		Take(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *ToolRepository) SitemapEntries(ctx context.Context) ([]SitemapEntry, error) {
	var entries []SitemapEntry
	err := r.db.WithContext(ctx).
		Model(&domain.Tool{}).
		Select("slug, updated_at").
		Where("status = ?", domain.ToolPublished).
		Order("slug ASC").
		Scan(&entries).Error
	return entries, err
}
