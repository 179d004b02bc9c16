package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"plaiful/internal/database"
	"plaiful/internal/dedup"
	"plaiful/internal/ratelimit"
)

// cleanup removes expired rate-limit hits and dedup keys. It is meant for
// deployments that run several API instances and prefer a cron job over the
// in-process pruner.
func main() {
	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)
	defer func() { _ = logger.Sync() }()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		zap.L().Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		zap.L().Fatal("db connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	hits, err := ratelimit.New(db, ratelimit.DefaultWindows).Prune(ctx)
	if err != nil {
		zap.L().Fatal("cleanup rate_limit_hits failed", zap.Error(err))
	}

	keys, err := dedup.NewStore(db, time.Hour).Purge(ctx)
	if err != nil {
		zap.L().Fatal("cleanup dedup_keys failed", zap.Error(err))
	}

	zap.L().Info("cleanup completed", zap.Int64("rate_limit_hits", hits), zap.Int64("dedup_keys", keys))
}
