package ratelimit_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plaiful/internal/database/databasetest"
	"plaiful/internal/ratelimit"
)

func TestLimiter_SlidingWindow(t *testing.T) {
	db := databasetest.New(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	l := ratelimit.New(db, nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := l.Allow(ctx, ratelimit.ActionSubmission, "1.1.1.1")
		require.True(t, d.Allowed, "hit %d", i)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d := l.Allow(ctx, ratelimit.ActionSubmission, "1.1.1.1")
	assert.False(t, d.Allowed)
	assert.Equal(t, now.Add(24*time.Hour), d.Reset)

	// another caller has its own window
	assert.True(t, l.Allow(ctx, ratelimit.ActionSubmission, "2.2.2.2").Allowed)
	// another action has its own window
	assert.True(t, l.Allow(ctx, ratelimit.ActionNewsletter, "1.1.1.1").Allowed)

	now = now.Add(24*time.Hour + time.Second)
	assert.True(t, l.Allow(ctx, ratelimit.ActionSubmission, "1.1.1.1").Allowed)
}

func TestLimiter_UnknownActionAllowed(t *testing.T) {
	db := databasetest.New(t)
	l := ratelimit.New(db, map[ratelimit.Action]ratelimit.Window{})

	assert.True(t, l.Allow(context.Background(), ratelimit.ActionAISearch, "x").Allowed)
}

func TestLimiter_FailsOpen(t *testing.T) {
	db := databasetest.New(t)
	l := ratelimit.New(db, nil)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	d := l.Allow(context.Background(), ratelimit.ActionAISearch, "1.1.1.1")
	assert.True(t, d.Allowed)
}

func TestLimiter_FailsOpenOnCancelledContext(t *testing.T) {
	db := databasetest.New(t)
	l := ratelimit.New(db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := l.Allow(ctx, ratelimit.ActionAISearch, "1.1.1.1")
	assert.True(t, d.Allowed)
}

func TestLimiter_Prune(t *testing.T) {
	db := databasetest.New(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	l := ratelimit.New(db, nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	l.Allow(ctx, ratelimit.ActionAISearch, "1.1.1.1")
	l.Allow(ctx, ratelimit.ActionAISearch, "1.1.1.2")

	now = now.Add(25 * time.Hour)
	n, err := l.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMiddleware_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	l := ratelimit.New(db, ratelimit.DefaultWindows)

	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.POST("/tools", l.Middleware(ratelimit.ActionSubmission), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/tools", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{201, 201, 201, 429, 429, 429}, codes)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	l := ratelimit.New(db, map[ratelimit.Action]ratelimit.Window{
		ratelimit.ActionNewsletter: {Limit: 1, Period: time.Hour},
	})

	r := gin.New()
	r.POST("/subscribe", l.Middleware(ratelimit.ActionNewsletter), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscribe", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscribe", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
