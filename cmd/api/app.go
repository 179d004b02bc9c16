package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"plaiful/internal/cache"
	"plaiful/internal/config"
	"plaiful/internal/database"
	"plaiful/internal/dedup"
	"plaiful/internal/llm"
	"plaiful/internal/middleware"
	"plaiful/internal/modules/ads"
	"plaiful/internal/modules/auth"
	"plaiful/internal/modules/blog"
	"plaiful/internal/modules/live"
	"plaiful/internal/modules/newsletter"
	"plaiful/internal/modules/search"
	"plaiful/internal/modules/sitemap"
	"plaiful/internal/modules/tools"
	"plaiful/internal/pkg/jwt"
	"plaiful/internal/pkg/response"
	"plaiful/internal/ranking"
	"plaiful/internal/ratelimit"
	"plaiful/internal/repository"
	"plaiful/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	cfg       *config.Config
	db        *gorm.DB
	router    *gin.Engine
	hub       *live.Hub
	memDedup  *dedup.Memory
	scheduler *scheduler.Scheduler
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var completer llm.Completer
	if cfg.LLM.Enabled() {
		completer, err = llm.New(ctx, cfg.LLM)
		if err != nil {
			zap.L().Warn("llm backend unavailable, heuristic ranking only", zap.Error(err))
			completer = nil
		}
	}

	return buildApp(cfg, db, completer)
}

// buildApp wires every module over an opened database.
func buildApp(cfg *config.Config, db *gorm.DB, completer llm.Completer) (*app, error) {
	fallbacks, err := config.LoadFallbackCreatives()
	if err != nil {
		return nil, err
	}

	toolRepo := repository.NewToolRepository(db)
	adRepo := repository.NewAdRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	blogRepo := repository.NewBlogRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)

	readCache := cache.NewMemory()
	limiter := ratelimit.New(db, ratelimit.DefaultWindows)
	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := live.NewHub()

	a := &app{cfg: cfg, db: db, hub: hub}

	var deduper dedup.Deduper
	pruners := map[string]scheduler.Pruner{"rate_limit_hits": limiter}
	if cfg.DedupBackend == "store" {
		store := dedup.NewStore(db, cfg.DedupWindow)
		deduper = store
		pruners["dedup_keys"] = scheduler.PrunerFunc(store.Purge)
	} else {
		a.memDedup = dedup.NewMemory()
		deduper = a.memDedup
	}

	ranker := ranking.New(cfg.RankingStrategy, completer)

	adService := ads.NewService(adRepo, categoryRepo, readCache, cfg.CacheTTL, fallbacks)
	toolService := tools.NewService(toolRepo, categoryRepo, deduper, readCache, cfg.CacheTTL, hub)
	searchService := search.NewService(toolRepo, categoryRepo, ranker, readCache, cfg.CacheTTL)
	blogService := blog.NewService(blogRepo, readCache, cfg.CacheTTL)
	newsletterService := newsletter.NewService(subscriberRepo)
	sitemapService := sitemap.NewService(cfg.SiteURL, toolRepo, categoryRepo, topicRepo, blogRepo, readCache, cfg.CacheTTL)
	authService := auth.NewService(cfg.AdminEmail, cfg.AdminPasswordHash, jwtService, cfg.JWTTTL)

	a.scheduler = scheduler.New(
		scheduler.Config{PublishInterval: cfg.PublishInterval},
		readCache,
		[]scheduler.Target{
			{Name: "tools", Publisher: toolRepo, CacheTag: tools.CacheTag},
			{Name: "posts", Publisher: blogRepo, CacheTag: blog.CacheTag},
		},
		pruners,
	)

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// ClientIP keys rate limits, dedup and the cron allowlist; forwarded
	// headers count only when the socket peer is a listed proxy.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(middleware.RequestID(), middleware.ErrorLogger(), middleware.RequestLogger(), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	sitemap.NewHandler(sitemapService).RegisterRoutes(r)
	r.POST("/internal/publish", middleware.InternalTokenAuth(cfg.CronSecret, cfg.CronAllowedIPs), a.publishNow)

	v1 := r.Group("/api/v1")
	{
		ads.NewHandler(adService).RegisterPublicRoutes(v1)
		tools.NewHandler(toolService).RegisterPublicRoutes(v1, limiter.Middleware(ratelimit.ActionSubmission))
		search.NewHandler(searchService).RegisterRoutes(v1, limiter.Middleware(ratelimit.ActionAISearch))
		blog.NewHandler(blogService).RegisterPublicRoutes(v1)
		newsletter.NewHandler(newsletterService).RegisterRoutes(v1, limiter.Middleware(ratelimit.ActionNewsletter))

		adminPublic := v1.Group("/admin")
		auth.NewHandler(authService).RegisterRoutes(adminPublic)
		live.NewHandler(hub, jwtService, cfg.CORSAllowedOrigins).RegisterRoutes(adminPublic)

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(jwtService), middleware.AdminOnly())
		{
			ads.NewHandler(adService).RegisterAdminRoutes(admin)
			tools.NewHandler(toolService).RegisterAdminRoutes(admin)
			blog.NewHandler(blogService).RegisterAdminRoutes(admin)
		}
	}

	a.router = r
	return a, nil
}

// Serve runs the HTTP server and background jobs until ctx is cancelled.
func (a *app) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.scheduler.Run(ctx)
	})
	if a.memDedup != nil {
		g.Go(func() error {
			a.memDedup.Run(ctx, a.cfg.DedupWindow)
			return nil
		})
	}
	return g.Wait()
}

// publishNow lets an external cron run the publish job.
func (a *app) publishNow(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"published": a.scheduler.PublishDue(c.Request.Context())})
}

func (a *app) Close() {
	a.hub.Close()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(cmd.Context())
}
