// Package ratelimit enforces per-action sliding windows keyed by caller IP.
// Hits are stored in the relational store so every instance shares them.
// Backend failures never block a caller.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"plaiful/internal/pkg/response"
)

type Action string

const (
	ActionSubmission    Action = "submission"
	ActionNewsletter    Action = "newsletter"
	ActionAISearch      Action = "ai-search"
	ActionStackAnalysis Action = "stack-analysis"
)

type Window struct {
	Limit  int
	Period time.Duration
}

var DefaultWindows = map[Action]Window{
	ActionSubmission:    {Limit: 3, Period: 24 * time.Hour},
	ActionNewsletter:    {Limit: 2, Period: 24 * time.Hour},
	ActionAISearch:      {Limit: 20, Period: time.Hour},
	ActionStackAnalysis: {Limit: 10, Period: 12 * time.Hour},
}

type Hit struct {
	ID        int64     `gorm:"primaryKey"`
	Action    string    `gorm:"size:32;not null;index:idx_rate_limit_hits_lookup,priority:1"`
	Key       string    `gorm:"column:caller_key;size:64;not null;index:idx_rate_limit_hits_lookup,priority:2"`
	CreatedAt time.Time `gorm:"not null;index:idx_rate_limit_hits_lookup,priority:3"`
}

func (Hit) TableName() string {
	return "rate_limit_hits"
}

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

type Limiter struct {
	db      *gorm.DB
	windows map[Action]Window
	now     func() time.Time
}

func New(db *gorm.DB, windows map[Action]Window) *Limiter {
	if windows == nil {
		windows = DefaultWindows
	}
	return &Limiter{db: db, windows: windows, now: time.Now}
}

func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow records a hit for (action, key) when the caller is under the limit.
// Unknown actions and backend errors are allowed.
func (l *Limiter) Allow(ctx context.Context, action Action, key string) Decision {
	w, ok := l.windows[action]
	if !ok {
		return Decision{Allowed: true}
	}

	d, err := l.allow(ctx, action, key, w)
	if err != nil {
		zap.L().Warn("rate limiter unavailable, failing open",
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return Decision{Allowed: true, Limit: w.Limit, Remaining: w.Limit}
	}
	return d
}

func (l *Limiter) allow(ctx context.Context, action Action, key string, w Window) (Decision, error) {
	now := l.now()
	since := now.Add(-w.Period)
	db := l.db.WithContext(ctx)

	window := func() *gorm.DB {
		return db.Model(&Hit{}).Where("action = ? AND caller_key = ? AND created_at > ?", string(action), key, since)
	}

	var count int64
	if err := window().Count(&count).Error; err != nil {
		return Decision{}, fmt.Errorf("count hits: %w", err)
	}

	if int(count) >= w.Limit {
		reset := now.Add(w.Period)
		var oldest Hit
		if err := window().Order("created_at ASC").Limit(1).Find(&oldest).Error; err == nil && oldest.ID != 0 {
			reset = oldest.CreatedAt.Add(w.Period)
		}
		return Decision{Allowed: false, Limit: w.Limit, Remaining: 0, Reset: reset}, nil
	}

	if err := db.Create(&Hit{Action: string(action), Key: key, CreatedAt: now}).Error; err != nil {
		return Decision{}, fmt.Errorf("record hit: %w", err)
	}

	return Decision{
		Allowed:   true,
		Limit:     w.Limit,
		Remaining: w.Limit - int(count) - 1,
		Reset:     now.Add(w.Period),
	}, nil
}

// Prune deletes hits older than the longest configured window.
func (l *Limiter) Prune(ctx context.Context) (int64, error) {
	var longest time.Duration
	for _, w := range l.windows {
		if w.Period > longest {
			longest = w.Period
		}
	}
	res := l.db.WithContext(ctx).Where("created_at <= ?", l.now().Add(-longest)).Delete(&Hit{})
	return res.RowsAffected, res.Error
}

// Middleware rejects callers over the action's limit with 429.
func (l *Limiter) Middleware(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := l.Allow(c.Request.Context(), action, c.ClientIP())
		if d.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		}
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(time.Until(d.Reset).Seconds())+1))
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
