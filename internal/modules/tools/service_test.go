package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"plaiful/internal/cache"
	"plaiful/internal/database/databasetest"
	"plaiful/internal/dedup"
	"plaiful/internal/domain"
	"plaiful/internal/pkg/validator"
	"plaiful/internal/repository"
)

var now = time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)

type recordedEvent struct {
	slug string
	kind repository.Counter
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) NotifyEngagement(slug string, kind repository.Counter, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{slug, kind})
}

type failingDeduper struct{}

func (failingDeduper) FirstSeen(context.Context, string) (bool, error) {
	return false, errors.New("dedup down")
}

type keyRecorder struct {
	dedup.Deduper
	mu   sync.Mutex
	keys []string
}

func (k *keyRecorder) FirstSeen(ctx context.Context, key string) (bool, error) {
	k.mu.Lock()
	k.keys = append(k.keys, key)
	k.mu.Unlock()
	return k.Deduper.FirstSeen(ctx, key)
}

func newTestService(t *testing.T, d dedup.Deduper) (*Service, *gorm.DB, *recorder) {
	t.Helper()
	db := databasetest.New(t)
	rec := &recorder{}
	if d == nil {
		d = dedup.NewMemory()
	}
	svc := NewService(
		repository.NewToolRepository(db),
		repository.NewCategoryRepository(db),
		d,
		cache.NewMemory(),
		time.Hour,
		rec,
	).WithClock(func() time.Time { return now })
	return svc, db, rec
}

func publish(t *testing.T, db *gorm.DB, name string, tier domain.ToolTier, at time.Time) domain.Tool {
	t.Helper()
	tool := domain.Tool{
		Slug:        fmt.Sprintf("%s-%d", name, at.Unix()),
		Name:        name,
		Status:      domain.ToolPublished,
		Tier:        tier,
		PricingType: domain.PricingFree,
		PublishedAt: &at,
	}
	require.NoError(t, db.Create(&tool).Error)
	return tool
}

func TestSearchTools_Pagination(t *testing.T) {
	svc, db, _ := newTestService(t, nil)
	for i := 0; i < 25; i++ {
		publish(t, db, fmt.Sprintf("tool%02d", i), domain.TierFree, now.Add(-time.Duration(i)*time.Hour))
	}

	page, err := svc.SearchTools(context.Background(), SearchParams{Page: 3, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, page.Tools, 5)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.TotalPages)

	page, err = svc.SearchTools(context.Background(), SearchParams{PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, maxPerPage, page.PerPage)
	assert.Len(t, page.Tools, 25)
}

func TestSearchTools_DefaultOrderAndPricing(t *testing.T) {
	svc, db, _ := newTestService(t, nil)
	publish(t, db, "Fresh", domain.TierFree, now)
	publish(t, db, "Premium", domain.TierPremium, now.Add(-72*time.Hour))

	page, err := svc.SearchTools(context.Background(), SearchParams{})
	require.NoError(t, err)
	require.Len(t, page.Tools, 2)
	assert.Equal(t, "Premium", page.Tools[0].Name)

	_, err = svc.SearchTools(context.Background(), SearchParams{PricingTypes: []string{"Free,Lifetime"}})
	var fields validator.FieldErrors
	assert.ErrorAs(t, err, &fields)
}

func TestIncrementView_DedupedPerIP(t *testing.T) {
	svc, db, rec := newTestService(t, nil)
	ctx := context.Background()
	tool := publish(t, db, "Claude", domain.TierFree, now)

	require.NoError(t, svc.IncrementView(ctx, tool.Slug, "10.0.0.1"))
	require.NoError(t, svc.IncrementView(ctx, tool.Slug, "10.0.0.1"))
	require.NoError(t, svc.IncrementView(ctx, tool.Slug, "10.0.0.2"))
	require.NoError(t, svc.IncrementClick(ctx, tool.Slug, "10.0.0.1"))
	require.NoError(t, svc.IncrementImpression(ctx, tool.Slug))
	require.NoError(t, svc.IncrementImpression(ctx, tool.Slug))

	a, err := svc.GetToolAnalytics(ctx, tool.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Views)
	assert.Equal(t, int64(1), a.Clicks)
	assert.Equal(t, int64(2), a.Impressions)
	assert.Len(t, rec.events, 5)

	assert.ErrorIs(t, svc.IncrementView(ctx, "missing", "10.0.0.1"), repository.ErrNotFound)
}

func TestIncrementView_UnknownSlugKeepsWindow(t *testing.T) {
	keys := &keyRecorder{Deduper: dedup.NewMemory()}
	svc, db, rec := newTestService(t, keys)
	ctx := context.Background()

	draft := domain.Tool{Slug: "stealth", Name: "Stealth", Status: domain.ToolDraft, Tier: domain.TierFree, PricingType: domain.PricingFree}
	require.NoError(t, db.Create(&draft).Error)

	assert.ErrorIs(t, svc.IncrementView(ctx, "later", "10.0.0.1"), repository.ErrNotFound)
	assert.ErrorIs(t, svc.IncrementClick(ctx, "stealth", "10.0.0.1"), repository.ErrNotFound)
	assert.Empty(t, keys.keys)
	assert.Empty(t, rec.events)

	tool := domain.Tool{Slug: "later", Name: "Later", Status: domain.ToolPublished, Tier: domain.TierFree, PricingType: domain.PricingFree, PublishedAt: &now}
	require.NoError(t, db.Create(&tool).Error)

	require.NoError(t, svc.IncrementView(ctx, "later", "10.0.0.1"))
	a, err := svc.GetToolAnalytics(ctx, "later")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Views)

	stealth, err := svc.GetToolAnalytics(ctx, "stealth")
	require.NoError(t, err)
	assert.Zero(t, stealth.Clicks)
}

func TestIncrementView_SharedStoreAcrossInstances(t *testing.T) {
	db := databasetest.New(t)
	store := dedup.NewStore(db, time.Hour)
	tools := repository.NewToolRepository(db)
	cats := repository.NewCategoryRepository(db)
	a := NewService(tools, cats, store, nil, time.Hour, nil)
	b := NewService(tools, cats, store, nil, time.Hour, nil)

	tool := publish(t, db, "Shared", domain.TierFree, now)
	ctx := context.Background()
	require.NoError(t, a.IncrementView(ctx, tool.Slug, "10.0.0.1"))
	require.NoError(t, b.IncrementView(ctx, tool.Slug, "10.0.0.1"))

	got, err := a.GetToolAnalytics(ctx, tool.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
}

func TestIncrementView_DedupFailureCounts(t *testing.T) {
	svc, db, _ := newTestService(t, failingDeduper{})
	tool := publish(t, db, "Flaky", domain.TierFree, now)

	require.NoError(t, svc.IncrementView(context.Background(), tool.Slug, "10.0.0.1"))
	a, err := svc.GetToolAnalytics(context.Background(), tool.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Views)
}

func TestSubmitTool(t *testing.T) {
	svc, db, _ := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, db.Create(&domain.Category{Slug: "writing", Name: "Writing"}).Error)

	req := SubmitToolRequest{
		Name:        "Café Writer",
		WebsiteURL:  "https://cafe.example.com",
		Description: "Writes things",
		Email:       "Founder@Example.com",
		PricingType: "Freemium",
		Categories:  []string{"writing"},
	}
	tool, err := svc.SubmitTool(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "cafe-writer", tool.Slug)
	assert.Equal(t, domain.ToolDraft, tool.Status)
	assert.Equal(t, "founder@example.com", tool.SubmitterEmail)
	require.Len(t, tool.Categories, 1)

	_, err = svc.SubmitTool(ctx, req)
	require.Error(t, err)
	assert.True(t, repository.IsDuplicate(err))

	_, err = svc.FindToolBySlug(ctx, "cafe-writer")
	assert.ErrorIs(t, err, repository.ErrNotFound, "drafts are not public")

	_, err = svc.SubmitTool(ctx, SubmitToolRequest{Name: "x"})
	var fields validator.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "website_url")
	assert.Contains(t, fields, "email")
}

func TestScheduleTool(t *testing.T) {
	svc, db, _ := newTestService(t, nil)
	ctx := context.Background()

	draft := domain.Tool{Slug: "soon", Name: "Soon", Status: domain.ToolDraft}
	require.NoError(t, db.Create(&draft).Error)

	_, err := svc.ScheduleTool(ctx, draft.ID, ScheduleToolRequest{PublishAt: now.Add(-time.Minute)})
	var fields validator.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "future", fields["publish_at"])

	tool, err := svc.ScheduleTool(ctx, draft.ID, ScheduleToolRequest{PublishAt: now.Add(time.Hour), Tier: "Featured"})
	require.NoError(t, err)
	assert.Equal(t, domain.ToolScheduled, tool.Status)
	assert.Equal(t, domain.TierFeatured, tool.Tier)

	found, err := svc.FindToolBySlug(ctx, "soon")
	require.NoError(t, err)
	assert.Equal(t, domain.ToolScheduled, found.Status)

	live := publish(t, db, "Live", domain.TierFree, now)
	_, err = svc.ScheduleTool(ctx, live.ID, ScheduleToolRequest{PublishAt: now.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrNotSchedulable)
}
