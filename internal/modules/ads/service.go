package ads

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"plaiful/internal/cache"
	"plaiful/internal/config"
	"plaiful/internal/domain"
	"plaiful/internal/pkg/validator"
	"plaiful/internal/repository"
)

const CacheTag = "ads"

// Criteria selects an ad slot. Placement and CategorySlug are optional.
type Criteria struct {
	Type         domain.AdType
	Placement    *domain.AdPlacement
	CategorySlug string
}

func (c Criteria) cacheKey() string {
	placement := "*"
	if c.Placement != nil {
		placement = string(*c.Placement)
	}
	return fmt.Sprintf("ads:find:%s:%s:%s", c.Type, placement, c.CategorySlug)
}

type Service struct {
	ads        AdRepository
	categories CategoryRepository
	cache      cache.Cache
	ttl        time.Duration
	fallbacks  config.FallbackCreatives
	now        func() time.Time
}

func NewService(
	ads AdRepository,
	categories CategoryRepository,
	c cache.Cache,
	ttl time.Duration,
	fallbacks config.FallbackCreatives,
) *Service {
	return &Service{
		ads:        ads,
		categories: categories,
		cache:      c,
		ttl:        ttl,
		fallbacks:  fallbacks,
		now:        time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// FindAd returns the newest ad active now that matches c, or nil. Results
// are cached per criteria shape, so an ad can outlive its window by up to
// the cache TTL.
func (s *Service) FindAd(ctx context.Context, c Criteria) (*domain.Ad, error) {
	return cache.Remember(ctx, s.cache, c.cacheKey(), s.ttl, []string{CacheTag},
		func(ctx context.Context) (*domain.Ad, error) {
			return s.ads.FindActive(ctx, repository.AdCriteria{
				Type:         c.Type,
				Placement:    c.Placement,
				CategorySlug: c.CategorySlug,
				Now:          s.now().UTC(),
			})
		})
}

// Resolve is FindAd with the fallback creative filled in when nothing runs.
func (s *Service) Resolve(ctx context.Context, c Criteria) (Slot, error) {
	ad, err := s.FindAd(ctx, c)
	if err != nil {
		return Slot{}, err
	}
	return s.slot(ad, c.Placement), nil
}

func (s *Service) slot(ad *domain.Ad, placement *domain.AdPlacement) Slot {
	if ad != nil {
		return Slot{Ad: ad}
	}
	p := domain.PlacementAgent
	if placement != nil {
		p = *placement
	}
	creative := s.fallbacks.For(string(p))
	return Slot{Fallback: &creative}
}

// FindHomePageAds resolves the four home page slots concurrently.
func (s *Service) FindHomePageAds(ctx context.Context) (*HomePageAds, error) {
	slots := []struct {
		typ       domain.AdType
		placement domain.AdPlacement
		dst       func(*HomePageAds) *Slot
	}{
		{domain.AdHomepage, domain.PlacementAgent, func(h *HomePageAds) *Slot { return &h.Agent }},
		{domain.AdBanner, domain.PlacementFloatingTop, func(h *HomePageAds) *Slot { return &h.FloatingTop }},
		{domain.AdBanner, domain.PlacementHorizontalTop, func(h *HomePageAds) *Slot { return &h.HorizontalTop }},
		{domain.AdBanner, domain.PlacementHorizontalBottom, func(h *HomePageAds) *Slot { return &h.HorizontalBottom }},
	}

	var out HomePageAds
	g, gctx := errgroup.WithContext(ctx)
	for _, sl := range slots {
		g.Go(func() error {
			slot, err := s.Resolve(gctx, Criteria{Type: sl.typ, Placement: &sl.placement})
			if err != nil {
				return fmt.Errorf("resolve %s slot: %w", sl.placement, err)
			}
			*sl.dst(&out) = slot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindAds is the uncached admin listing.
func (s *Service) FindAds(ctx context.Context, p repository.AdFilterParams) ([]domain.Ad, int64, error) {
	return s.ads.List(ctx, p)
}

func (s *Service) GetAd(ctx context.Context, id string) (*domain.Ad, error) {
	return s.ads.GetByID(ctx, id)
}

func (s *Service) CreateAd(ctx context.Context, req AdRequest) (*domain.Ad, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	categories, err := s.resolveCategories(ctx, req.Categories)
	if err != nil {
		return nil, err
	}

	var ad domain.Ad
	req.apply(&ad, categories)
	if err := s.ads.Create(ctx, &ad); err != nil {
		return nil, err
	}

	s.invalidate()
	zap.L().Info("ad created", zap.String("id", ad.ID), zap.String("placement", string(ad.Placement)))
	return &ad, nil
}

func (s *Service) UpdateAd(ctx context.Context, id string, req AdRequest) (*domain.Ad, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	ad, err := s.ads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	categories, err := s.resolveCategories(ctx, req.Categories)
	if err != nil {
		return nil, err
	}

	req.apply(ad, categories)
	if err := s.ads.Update(ctx, ad); err != nil {
		return nil, err
	}

	s.invalidate()
	return ad, nil
}

func (s *Service) DeleteAd(ctx context.Context, id string) error {
	if err := s.ads.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// resolveCategories rejects unknown category slugs.
func (s *Service) resolveCategories(ctx context.Context, slugs []string) ([]domain.Category, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	categories, err := s.categories.BySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(categories) != len(uniq(slugs)) {
		return nil, validator.FieldErrors{"categories": "exists"}
	}
	return categories, nil
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate(CacheTag)
	}
}

func uniq(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, v := range in {
		out[v] = struct{}{}
	}
	return out
}
