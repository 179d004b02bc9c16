// Package scheduler runs the periodic maintenance jobs: promoting scheduled
// tools and posts, and pruning expired limiter and dedup rows.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"plaiful/internal/cache"
)

// Publisher promotes scheduled rows whose publish time has passed.
type Publisher interface {
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}

// Target pairs a publisher with the cache tag its rows feed.
type Target struct {
	Name      string
	Publisher Publisher
	CacheTag  string
}

// Pruner deletes expired bookkeeping rows.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

type PrunerFunc func(ctx context.Context) (int64, error)

func (f PrunerFunc) Prune(ctx context.Context) (int64, error) { return f(ctx) }

type Config struct {
	PublishInterval time.Duration
	PruneInterval   time.Duration
}

type Scheduler struct {
	targets []Target
	pruners map[string]Pruner
	cache   cache.Cache
	cfg     Config
	now     func() time.Time
}

func New(cfg Config, c cache.Cache, targets []Target, pruners map[string]Pruner) *Scheduler {
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = time.Minute
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = time.Hour
	}
	return &Scheduler{targets: targets, pruners: pruners, cache: c, cfg: cfg, now: time.Now}
}

func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// PublishDue runs every target once and returns the number of rows promoted
// per target. A failing target does not stop the others.
func (s *Scheduler) PublishDue(ctx context.Context) map[string]int64 {
	now := s.now().UTC()
	promoted := make(map[string]int64, len(s.targets))
	for _, t := range s.targets {
		n, err := t.Publisher.PublishDue(ctx, now)
		if err != nil {
			zap.L().Error("publish due failed", zap.String("target", t.Name), zap.Error(err))
			continue
		}
		promoted[t.Name] = n
		if n > 0 {
			zap.L().Info("published scheduled items", zap.String("target", t.Name), zap.Int64("count", n))
			if s.cache != nil && t.CacheTag != "" {
				s.cache.Invalidate(t.CacheTag)
			}
		}
	}
	return promoted
}

// Prune runs every pruner once.
func (s *Scheduler) Prune(ctx context.Context) map[string]int64 {
	removed := make(map[string]int64, len(s.pruners))
	for name, p := range s.pruners {
		n, err := p.Prune(ctx)
		if err != nil {
			zap.L().Warn("prune failed", zap.String("pruner", name), zap.Error(err))
			continue
		}
		removed[name] = n
		if n > 0 {
			zap.L().Debug("pruned rows", zap.String("pruner", name), zap.Int64("count", n))
		}
	}
	return removed
}

// Run executes both jobs on their intervals until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		every(ctx, s.cfg.PublishInterval, func() { s.PublishDue(ctx) })
		return nil
	})
	if len(s.pruners) > 0 {
		g.Go(func() error {
			every(ctx, s.cfg.PruneInterval, func() { s.Prune(ctx) })
			return nil
		})
	}
	return g.Wait()
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
