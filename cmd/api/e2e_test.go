package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"plaiful/internal/database/databasetest"
	"plaiful/internal/domain"
)

type E2ETestSuite struct {
	t     *testing.T
	app   *app
	db    *gorm.DB
	token string
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db := databasetest.New(t)
	cfg := testConfig(t)
	cfg.CronSecret = "cron-secret"

	a, err := buildApp(cfg, db, nil)
	require.NoError(t, err)
	t.Cleanup(a.hub.Close)

	s := &E2ETestSuite{t: t, app: a, db: db}
	w, resp := s.request(http.MethodPost, "/api/v1/admin/login", "", map[string]string{
		"email": "ops@plaiful.ai", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &login))
	s.token = login.AccessToken
	return s
}

func (s *E2ETestSuite) request(method, path, token string, body interface{}) (*httptest.ResponseRecorder, TestResponse) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "198.51.100.20:5000"

	w := httptest.NewRecorder()
	s.app.router.ServeHTTP(w, req)

	var resp TestResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func TestE2E_SubmitScheduleAndPublish(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.request(http.MethodPost, "/api/v1/tools", "", map[string]interface{}{
		"name":         "Prompt Forge",
		"website_url":  "https://promptforge.example",
		"tagline":      "Versioned prompt library",
		"description":  "Keeps prompts under version control",
		"email":        "Maker@Example.com",
		"pricing_type": "Paid",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, resp.Success)

	w, resp = s.request(http.MethodPost, "/api/v1/tools", "", map[string]interface{}{
		"name": "Prompt Forge", "website_url": "https://x.example", "description": "dup", "email": "a@b.co",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE", resp.Error.Code)

	w, _ = s.request(http.MethodGet, "/api/v1/tools/prompt-forge", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "drafts are hidden")

	var tool domain.Tool
	require.NoError(t, s.db.First(&tool, "slug = ?", "prompt-forge").Error)

	w, _ = s.request(http.MethodPost, "/api/v1/admin/tools/"+tool.ID+"/schedule", "", map[string]interface{}{
		"publish_at": time.Now().Add(time.Hour),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.request(http.MethodPost, "/api/v1/admin/tools/"+tool.ID+"/schedule", s.token, map[string]interface{}{
		"publish_at": time.Now().Add(time.Hour),
		"tier":       "Featured",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Let the scheduled moment pass.
	past := time.Now().Add(-time.Minute).UTC()
	require.NoError(t, s.db.Model(&domain.Tool{}).Where("id = ?", tool.ID).Update("published_at", past).Error)

	w, _ = s.request(http.MethodPost, "/internal/publish", "wrong", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = s.request(http.MethodPost, "/internal/publish", "cron-secret", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"published":{"tools":1,"posts":0}}`, string(resp.Data))

	w, resp = s.request(http.MethodGet, "/api/v1/tools?q=prompt", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
		Tools []struct {
			Slug string `json:"slug"`
			Tier string `json:"tier"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "prompt-forge", page.Tools[0].Slug)
	assert.Equal(t, "Featured", page.Tools[0].Tier)
}

func TestE2E_EngagementCounters(t *testing.T) {
	s := setupTestSuite(t)

	published := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, s.db.Create(&domain.Tool{
		Slug: "claude", Name: "Claude", Status: domain.ToolPublished, PublishedAt: &published,
	}).Error)

	for i := 0; i < 2; i++ {
		for _, kind := range []string{"impression", "view", "click"} {
			w, _ := s.request(http.MethodPost, "/api/v1/tools/claude/"+kind, "", nil)
			require.Equal(t, http.StatusNoContent, w.Code)
		}
	}

	w, resp := s.request(http.MethodGet, "/api/v1/admin/analytics/tools/claude", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var analytics struct {
		Impressions int64 `json:"impressions"`
		Views       int64 `json:"views"`
		Clicks      int64 `json:"clicks"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &analytics))
	assert.Equal(t, int64(2), analytics.Impressions)
	assert.Equal(t, int64(1), analytics.Views)
	assert.Equal(t, int64(1), analytics.Clicks)
}

func TestE2E_AdminAdsLifecycle(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.request(http.MethodGet, "/api/v1/ads?type=Homepage&placement=Agent", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"ad":null`)
	assert.Contains(t, string(resp.Data), `"fallback"`)

	w, resp = s.request(http.MethodPost, "/api/v1/admin/ads", s.token, map[string]interface{}{
		"name":        "Launch Week",
		"website_url": "https://plaiful.ai/launch",
		"type":        "Homepage",
		"placement":   "Agent",
		"starts_at":   time.Now().Add(-time.Hour),
		"ends_at":     time.Now().Add(24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, resp = s.request(http.MethodGet, "/api/v1/ads?type=Homepage&placement=Agent", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), "Launch Week")

	w, resp = s.request(http.MethodPost, "/api/v1/admin/ads", s.token, map[string]interface{}{
		"name":        "Bad Banner",
		"website_url": "https://plaiful.ai",
		"type":        "Banner",
		"placement":   "HorizontalTop",
		"starts_at":   time.Now(),
		"ends_at":     time.Now().Add(time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}
