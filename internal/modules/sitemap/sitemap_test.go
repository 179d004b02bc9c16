package sitemap

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plaiful/internal/cache"
	"plaiful/internal/database/databasetest"
	"plaiful/internal/domain"
	"plaiful/internal/repository"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestBuild_ListsPublishedContent(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()

	published := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	require.NoError(t, db.Create(&domain.Tool{Slug: "claude", Name: "Claude", Status: domain.ToolPublished, PublishedAt: &published}).Error)
	require.NoError(t, db.Create(&domain.Tool{Slug: "draft-tool", Name: "Draft", Status: domain.ToolDraft}).Error)
	require.NoError(t, repository.NewCategoryRepository(db).Create(ctx, &domain.Category{Slug: "writing", Name: "Writing"}))
	require.NoError(t, repository.NewTopicRepository(db).Create(ctx, &domain.Topic{Slug: "agents", Name: "Agents"}))
	posts := repository.NewBlogRepository(db)
	require.NoError(t, posts.Create(ctx, &domain.BlogPost{Slug: "hello", Title: "Hello", Status: domain.PostPublished, PublishedAt: &published}))
	require.NoError(t, posts.Create(ctx, &domain.BlogPost{Slug: "soon", Title: "Soon", Status: domain.PostScheduled, PublishedAt: &future}))

	svc := NewService("https://plaiful.ai",
		repository.NewToolRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewTopicRepository(db),
		posts,
		cache.NewMemory(), time.Hour,
	).WithClock(func() time.Time { return now })

	set, err := svc.Build(ctx)
	require.NoError(t, err)

	locs := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		locs = append(locs, u.Loc)
	}
	want := []string{
		"https://plaiful.ai/",
		"https://plaiful.ai/tools",
		"https://plaiful.ai/categories",
		"https://plaiful.ai/blog",
		"https://plaiful.ai/tools/claude",
		"https://plaiful.ai/categories/writing",
		"https://plaiful.ai/topics/agents",
		"https://plaiful.ai/blog/hello",
	}
	if diff := cmp.Diff(want, locs); diff != "" {
		t.Errorf("sitemap locations mismatch (-want +got):\n%s", diff)
	}
	assert.NotEmpty(t, set.URLs[4].LastMod)
}

func TestHandler_ServesXML(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)

	svc := NewService("https://plaiful.ai",
		repository.NewToolRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewTopicRepository(db),
		repository.NewBlogRepository(db),
		nil, time.Hour,
	)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")

	var set URLSet
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &set))
	assert.Contains(t, w.Body.String(), `xmlns="`+xmlns+`"`)
	assert.Len(t, set.URLs, 4)
}
