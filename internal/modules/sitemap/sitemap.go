// Package sitemap renders sitemap.xml over published directory content.
package sitemap

import (
	"context"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"plaiful/internal/cache"
	"plaiful/internal/pkg/response"
	"plaiful/internal/repository"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type ToolSource interface {
	SitemapEntries(ctx context.Context) ([]repository.SitemapEntry, error)
}

type PostSource interface {
	SitemapEntries(ctx context.Context, now time.Time) ([]repository.SitemapEntry, error)
}

type URL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type Service struct {
	siteURL    string
	tools      ToolSource
	categories ToolSource
	topics     ToolSource
	posts      PostSource
	cache      cache.Cache
	ttl        time.Duration
	now        func() time.Time
}

// NewService builds the generator. tools, categories and topics share the
// SitemapEntries(ctx) shape.
func NewService(siteURL string, tools, categories, topics ToolSource, posts PostSource, c cache.Cache, ttl time.Duration) *Service {
	return &Service{
		siteURL:    siteURL,
		tools:      tools,
		categories: categories,
		topics:     topics,
		posts:      posts,
		cache:      c,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Build lists static pages followed by tools, categories, topics and posts.
func (s *Service) Build(ctx context.Context) (*URLSet, error) {
	return cache.Remember(ctx, s.cache, "sitemap", s.ttl, []string{"tools", "blog"},
		func(ctx context.Context) (*URLSet, error) {
			var tools, categories, topics, posts []repository.SitemapEntry

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) { tools, err = s.tools.SitemapEntries(gctx); return })
			g.Go(func() (err error) { categories, err = s.categories.SitemapEntries(gctx); return })
			g.Go(func() (err error) { topics, err = s.topics.SitemapEntries(gctx); return })
			g.Go(func() (err error) { posts, err = s.posts.SitemapEntries(gctx, s.now().UTC()); return })
			if err := g.Wait(); err != nil {
				return nil, err
			}

			set := &URLSet{Xmlns: xmlns}
			for _, path := range []string{"/", "/tools", "/categories", "/blog"} {
				set.URLs = append(set.URLs, URL{Loc: s.siteURL + path})
			}
			set.URLs = s.appendEntries(set.URLs, "/tools/", tools)
			set.URLs = s.appendEntries(set.URLs, "/categories/", categories)
			set.URLs = s.appendEntries(set.URLs, "/topics/", topics)
			set.URLs = s.appendEntries(set.URLs, "/blog/", posts)
			return set, nil
		})
}

func (s *Service) appendEntries(urls []URL, prefix string, entries []repository.SitemapEntry) []URL {
	for _, e := range entries {
		u := URL{Loc: s.siteURL + prefix + e.Slug}
		if !e.UpdatedAt.IsZero() {
			u.LastMod = e.UpdatedAt.UTC().Format(time.RFC3339)
		}
		urls = append(urls, u)
	}
	return urls
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/sitemap.xml", h.Sitemap)
}

func (h *Handler) Sitemap(c *gin.Context) {
	set, err := h.service.Build(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}
