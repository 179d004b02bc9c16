package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"plaiful/internal/cache"
	"plaiful/internal/domain"
	"plaiful/internal/pkg/utils"
	"plaiful/internal/pkg/validator"
)

const CacheTag = "blog"

type Service struct {
	posts PostRepository
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewService(posts PostRepository, c cache.Cache, ttl time.Duration) *Service {
	return &Service{posts: posts, cache: c, ttl: ttl, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreatePost(ctx context.Context, req CreatePostRequest) (*domain.BlogPost, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	slug := utils.Slugify(req.Slug)
	if slug == "" {
		slug = utils.Slugify(req.Title)
	}
	if slug == "" {
		return nil, validator.FieldErrors{"slug": "slug"}
	}

	status := domain.PostDraft
	if req.Status != "" {
		parsed, err := domain.ParsePostStatus(req.Status)
		if err != nil {
			return nil, validator.FieldErrors{"status": "oneof"}
		}
		status = parsed
	}

	post := &domain.BlogPost{
		Slug:        slug,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		Status:      status,
		PublishedAt: req.PublishedAt,
	}
	if err := s.settlePublication(post); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.invalidate()
	zap.L().Info("blog post created", zap.String("slug", post.Slug), zap.String("status", string(post.Status)))
	return post, nil
}

func (s *Service) UpdatePost(ctx context.Context, id string, req UpdatePostRequest) (*domain.BlogPost, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		post.Description = strings.TrimSpace(*req.Description)
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.ImageURL != nil {
		post.ImageURL = *req.ImageURL
	}
	if req.Status != nil {
		status, err := domain.ParsePostStatus(*req.Status)
		if err != nil {
			return nil, validator.FieldErrors{"status": "oneof"}
		}
		post.Status = status
	}
	if req.PublishedAt != nil {
		post.PublishedAt = req.PublishedAt
	}
	if err := s.settlePublication(post); err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	s.invalidate()
	return post, nil
}

// settlePublication enforces the status/date pairing: a scheduled post needs
// a future date and a published post without one is stamped now.
func (s *Service) settlePublication(p *domain.BlogPost) error {
	now := s.now().UTC()
	switch p.Status {
	case domain.PostScheduled:
		if p.PublishedAt == nil || !p.PublishedAt.After(now) {
			return validator.FieldErrors{"published_at": "future"}
		}
	case domain.PostPublished:
		if p.PublishedAt == nil {
			p.PublishedAt = &now
		}
	}
	if p.PublishedAt != nil {
		at := p.PublishedAt.UTC()
		p.PublishedAt = &at
	}
	return nil
}

// ListPosts pages through visible posts, newest first.
func (s *Service) ListPosts(ctx context.Context, p ListParams) (*PostPage, error) {
	page, perPage := p.Page, p.PerPage
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	key := fmt.Sprintf("blog:list:%d|%d", page, perPage)
	return cache.Remember(ctx, s.cache, key, s.ttl, []string{CacheTag},
		func(ctx context.Context) (*PostPage, error) {
			posts, total, err := s.posts.ListPublished(ctx, s.now().UTC(), perPage, (page-1)*perPage)
			if err != nil {
				return nil, err
			}
			if posts == nil {
				posts = []domain.BlogPost{}
			}
			return &PostPage{
				Posts:      posts,
				Total:      total,
				Page:       page,
				PerPage:    perPage,
				TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
			}, nil
		})
}

func (s *Service) FindPost(ctx context.Context, slug string) (*domain.BlogPost, error) {
	return cache.Remember(ctx, s.cache, "blog:slug:"+slug, s.ttl, []string{CacheTag},
		func(ctx context.Context) (*domain.BlogPost, error) {
			return s.posts.FindPublishedBySlug(ctx, slug, s.now().UTC())
		})
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate(CacheTag)
	}
}
