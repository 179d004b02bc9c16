package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"plaiful/internal/cache"
	"plaiful/internal/dedup"
	"plaiful/internal/domain"
	"plaiful/internal/pkg/utils"
	"plaiful/internal/pkg/validator"
	"plaiful/internal/repository"
)

const CacheTag = "tools"

type Service struct {
	tools      ToolRepository
	categories CategoryRepository
	dedup      dedup.Deduper
	cache      cache.Cache
	ttl        time.Duration
	notifier   EngagementNotifier
	now        func() time.Time
}

func NewService(
	tools ToolRepository,
	categories CategoryRepository,
	d dedup.Deduper,
	c cache.Cache,
	ttl time.Duration,
	notifier EngagementNotifier,
) *Service {
	return &Service{
		tools:      tools,
		categories: categories,
		dedup:      d,
		cache:      c,
		ttl:        ttl,
		notifier:   notifier,
		now:        time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SearchTools runs the deterministic search and paginates it.
func (s *Service) SearchTools(ctx context.Context, p SearchParams) (*ToolPage, error) {
	page, perPage := normalizePage(p.Page, p.PerPage)

	pricing := make([]domain.PricingType, 0, len(p.PricingTypes))
	for _, raw := range p.PricingTypes {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			pt, err := domain.ParsePricingType(strings.TrimSpace(part))
			if err != nil {
				return nil, validator.FieldErrors{"pricing": "oneof"}
			}
			pricing = append(pricing, pt)
		}
	}
	sort.Slice(pricing, func(i, j int) bool { return pricing[i] < pricing[j] })

	filters := repository.ToolFilters{
		Query:        strings.TrimSpace(p.Query),
		Category:     strings.TrimSpace(p.Category),
		PricingTypes: pricing,
		Sort:         repository.ParseToolSort(p.Sort),
		Limit:        perPage,
		Offset:       (page - 1) * perPage,
	}
	key := fmt.Sprintf("tools:search:%s|%s|%v|%s|%d|%d",
		strings.ToLower(filters.Query), filters.Category, filters.PricingTypes, filters.Sort, page, perPage)

	return cache.Remember(ctx, s.cache, key, s.ttl, []string{CacheTag},
		func(ctx context.Context) (*ToolPage, error) {
			tools, total, err := s.tools.Search(ctx, filters)
			if err != nil {
				return nil, err
			}
			if tools == nil {
				tools = []domain.Tool{}
			}
			return &ToolPage{
				Tools:      tools,
				Total:      total,
				Page:       page,
				PerPage:    perPage,
				TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
			}, nil
		})
}

func normalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// FindToolBySlug returns any non-draft tool.
func (s *Service) FindToolBySlug(ctx context.Context, slug string) (*domain.Tool, error) {
	return cache.Remember(ctx, s.cache, "tools:slug:"+slug, s.ttl, []string{CacheTag},
		func(ctx context.Context) (*domain.Tool, error) {
			return s.tools.FindBySlug(ctx, slug)
		})
}

// FindToolSlugs lists every published slug, for static path generation.
func (s *Service) FindToolSlugs(ctx context.Context) ([]string, error) {
	return cache.Remember(ctx, s.cache, "tools:slugs", s.ttl, []string{CacheTag},
		func(ctx context.Context) ([]string, error) {
			return s.tools.Slugs(ctx)
		})
}

// SubmitTool stores a public submission as a draft awaiting review.
func (s *Service) SubmitTool(ctx context.Context, req SubmitToolRequest) (*domain.Tool, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	slug := utils.Slugify(req.Name)
	if slug == "" {
		return nil, validator.FieldErrors{"name": "slug"}
	}

	pricing := domain.PricingFree
	if req.PricingType != "" {
		pricing = domain.PricingType(req.PricingType)
	}

	categories, err := s.categories.BySlugs(ctx, req.Categories)
	if err != nil {
		return nil, err
	}

	tool := &domain.Tool{
		Slug:           slug,
		Name:           strings.TrimSpace(req.Name),
		Tagline:        strings.TrimSpace(req.Tagline),
		Description:    strings.TrimSpace(req.Description),
		WebsiteURL:     req.WebsiteURL,
		SubmitterEmail: strings.ToLower(req.Email),
		Status:         domain.ToolDraft,
		Tier:           domain.TierFree,
		PricingType:    pricing,
		Categories:     categories,
	}
	if err := s.tools.Create(ctx, tool); err != nil {
		return nil, err
	}

	zap.L().Info("tool submitted", zap.String("slug", tool.Slug))
	return tool, nil
}

// ScheduleTool queues a tool for publication at a future moment.
func (s *Service) ScheduleTool(ctx context.Context, id string, req ScheduleToolRequest) (*domain.Tool, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if !req.PublishAt.After(s.now()) {
		return nil, validator.FieldErrors{"publish_at": "future"}
	}

	tool, err := s.tools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tool.Status == domain.ToolPublished {
		return nil, ErrNotSchedulable
	}

	at := req.PublishAt.UTC()
	tool.Status = domain.ToolScheduled
	tool.PublishedAt = &at
	if req.Tier != "" {
		tier, err := domain.ParseToolTier(req.Tier)
		if err != nil {
			return nil, validator.FieldErrors{"tier": "oneof"}
		}
		tool.Tier = tier
	}
	if err := s.tools.Update(ctx, tool); err != nil {
		return nil, err
	}

	s.invalidate()
	return tool, nil
}

// IncrementImpression counts every render.
func (s *Service) IncrementImpression(ctx context.Context, slug string) error {
	return s.increment(ctx, slug, repository.CounterImpressions)
}

// IncrementView counts at most once per (tool, ip) in the dedup window.
func (s *Service) IncrementView(ctx context.Context, slug, ip string) error {
	return s.incrementOnce(ctx, slug, ip, repository.CounterViews)
}

// IncrementClick counts at most once per (tool, ip) in the dedup window.
func (s *Service) IncrementClick(ctx context.Context, slug, ip string) error {
	return s.incrementOnce(ctx, slug, ip, repository.CounterClicks)
}

// incrementOnce resolves the tool before recording the dedup key, so an
// unknown or draft slug never burns the caller's window.
func (s *Service) incrementOnce(ctx context.Context, slug, ip string, c repository.Counter) error {
	if _, err := s.FindToolBySlug(ctx, slug); err != nil {
		return err
	}
	first, err := s.dedup.FirstSeen(ctx, dedupKey(c, slug, ip))
	if err != nil {
		zap.L().Warn("dedup backend failed, counting anyway",
			zap.String("slug", slug), zap.String("counter", string(c)), zap.Error(err))
		first = true
	}
	if !first {
		return nil
	}
	return s.increment(ctx, slug, c)
}

func (s *Service) increment(ctx context.Context, slug string, c repository.Counter) error {
	if err := s.tools.Increment(ctx, slug, c); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyEngagement(slug, c, s.now().UTC())
	}
	return nil
}

func dedupKey(c repository.Counter, slug, ip string) string {
	kind := strings.TrimSuffix(string(c), "s")
	return kind + ":" + slug + ":" + ip
}

func (s *Service) GetToolAnalytics(ctx context.Context, slug string) (*repository.ToolAnalytics, error) {
	return s.tools.Analytics(ctx, slug)
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate(CacheTag)
	}
}
