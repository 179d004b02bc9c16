package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"plaiful/internal/domain"
)

type AdCriteria struct {
	Type         domain.AdType
	Placement    *domain.AdPlacement
	CategorySlug string
	Now          time.Time
}

type AdFilterParams struct {
	Page       int
	PerPage    int
	Sort       string // "<column>.<asc|desc>"
	Name       string
	Types      []domain.AdType
	Placements []domain.AdPlacement
	From       *time.Time // ads still running at or after From
	To         *time.Time // ads starting before To
	Operator   string     // "and" (default) or "or"
}

var adSortColumns = map[string]string{
	"name":       "ads.name",
	"type":       "ads.type",
	"placement":  "ads.placement",
	"starts_at":  "ads.starts_at",
	"ends_at":    "ads.ends_at",
	"created_at": "ads.created_at",
}

type AdRepository struct {
	db *gorm.DB
}

func NewAdRepository(db *gorm.DB) *AdRepository {
	return &AdRepository{db: db}
}

// FindActive returns the most recently started ad that matches c and is active
// at c.Now, or nil when none matches.
func (r *AdRepository) FindActive(ctx context.Context, c AdCriteria) (*domain.Ad, error) {
	q := r.db.WithContext(ctx).
		Where("ads.type = ? AND ads.starts_at <= ? AND ads.ends_at > ?", c.Type, c.Now, c.Now)

	if c.Placement != nil {
		q = q.Where("ads.placement = ?", *c.Placement)
	}
	if c.CategorySlug != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM ad_categories ac
			JOIN categories c ON c.id = ac.category_id
			WHERE ac.ad_id = ads.id AND c.slug = ?)`, c.CategorySlug)
	}

	var ad domain.Ad
	err := q.Order("ads.starts_at DESC").
		Order("ads.id ASC").
		Preload("Categories").
		First(&ad).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

// List is the admin listing. Filters combine with AND unless
// p.Operator is "or".
func (r *AdRepository) List(ctx context.Context, p AdFilterParams) ([]domain.Ad, int64, error) {
	db := r.db.WithContext(ctx)

	var conds []*gorm.DB
	if name := strings.TrimSpace(p.Name); name != "" {
		conds = append(conds, r.db.Where("LOWER(ads.name) LIKE ?"+likeEscape, containsPattern(name)))
	}
	if len(p.Types) > 0 {
		conds = append(conds, r.db.Where("ads.type IN ?", p.Types))
	}
	if len(p.Placements) > 0 {
		conds = append(conds, r.db.Where("ads.placement IN ?", p.Placements))
	}
	if p.From != nil {
		conds = append(conds, r.db.Where("ads.ends_at >= ?", *p.From))
	}
	if p.To != nil {
		conds = append(conds, r.db.Where("ads.starts_at < ?", *p.To))
	}

	var filter *gorm.DB
	if len(conds) > 0 {
		if strings.EqualFold(p.Operator, "or") {
			filter = conds[0]
			for _, c := range conds[1:] {
				filter = filter.Or(c)
			}
		} else {
			filter = conds[0]
			for _, c := range conds[1:] {
				filter = filter.Where(c)
			}
		}
	}

	base := func() *gorm.DB {
		q := db.Model(&domain.Ad{})
		if filter != nil {
			q = q.Where(filter)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, perPage := p.Page, p.PerPage
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	var ads []domain.Ad
	err := base().
		Order(adOrder(p.Sort)).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Preload("Categories").
		Find(&ads).Error
	if err != nil {
		return nil, 0, err
	}
	return ads, total, nil
}

func adOrder(sort string) string {
	col, dir, _ := strings.Cut(strings.ToLower(sort), ".")
	column, ok := adSortColumns[col]
	if !ok {
		return "ads.starts_at DESC"
	}
	if dir == "asc" {
		return column + " ASC"
	}
	return column + " DESC"
}

func (r *AdRepository) GetByID(ctx context.Context, id string) (*domain.Ad, error) {
	var ad domain.Ad
	if err := r.db.WithContext(ctx).Preload("Categories").First(&ad, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ad, nil
}

func (r *AdRepository) Create(ctx context.Context, ad *domain.Ad) error {
	return r.db.WithContext(ctx).Create(ad).Error
}

// Update saves scalar fields and replaces category targeting.
func (r *AdRepository) Update(ctx context.Context, ad *domain.Ad) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Save(ad).Error; err != nil {
			return err
		}
		return tx.Model(ad).Association("Categories").Replace(ad.Categories)
	})
}

func (r *AdRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Select("Categories").Delete(&domain.Ad{Model: domain.Model{ID: id}})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
