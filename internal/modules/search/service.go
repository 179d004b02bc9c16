package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"plaiful/internal/cache"
	"plaiful/internal/domain"
	"plaiful/internal/pkg/validator"
	"plaiful/internal/ranking"
	"plaiful/internal/repository"
)

const (
	fallbackLimit      = 10
	alternativesLimit  = 6
	categorySearchSize = 10
	toolsCacheTag      = "tools"
)

// Result is the AI search envelope. AIPowered is false when the ranked path
// failed and the substring fallback produced the tools.
type Result struct {
	Tools     []domain.Tool `json:"tools"`
	AIPowered bool          `json:"aiPowered"`
	Ranker    string        `json:"ranker,omitempty"`
}

type Service struct {
	tools      ToolRepository
	categories CategoryRepository
	ranker     ranking.Ranker
	cache      cache.Cache
	ttl        time.Duration
}

func NewService(tools ToolRepository, categories CategoryRepository, ranker ranking.Ranker, c cache.Cache, ttl time.Duration) *Service {
	return &Service{tools: tools, categories: categories, ranker: ranker, cache: c, ttl: ttl}
}

// AISearch ranks every published tool against query. Guard rejections are
// returned before any tool data is loaded.
func (s *Service) AISearch(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validator.FieldErrors{"q": "required"}
	}
	if err := ranking.Check(query); err != nil {
		zap.L().Info("search query rejected", zap.String("query", query))
		return nil, err
	}

	tools, err := cache.Remember(ctx, s.cache, "tools:published", s.ttl, []string{toolsCacheTag}, s.tools.ListPublished)
	if err != nil {
		return nil, err
	}

	ranked, err := s.ranker.Rank(ctx, query, tools)
	if err == nil && len(ranked) > 0 {
		return &Result{Tools: ranked, AIPowered: true, Ranker: s.ranker.Name()}, nil
	}
	if err != nil {
		zap.L().Warn("ranking failed, using substring search",
			zap.String("ranker", s.ranker.Name()), zap.Error(err))
	}

	fallback, _, err := s.tools.Search(ctx, repository.ToolFilters{
		Query: query,
		Sort:  repository.SortDefault,
		Limit: fallbackLimit,
	})
	if err != nil {
		return nil, err
	}
	if fallback == nil {
		fallback = []domain.Tool{}
	}
	return &Result{Tools: fallback, AIPowered: false}, nil
}

// SearchAlternatives lists published tools sharing a category with slug.
func (s *Service) SearchAlternatives(ctx context.Context, slug string) ([]domain.Tool, error) {
	tool, err := s.tools.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.tools.Alternatives(ctx, tool.ID, alternativesLimit)
}

func (s *Service) SearchCategories(ctx context.Context, query string) ([]domain.Category, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.categories.List(ctx)
	}
	return s.categories.Search(ctx, query, categorySearchSize)
}
