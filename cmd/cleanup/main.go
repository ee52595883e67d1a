package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/qs3c/ramadan_bot_server/config"
	"github.com/qs3c/ramadan_bot_server/internal/database"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/storage"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
	"github.com/qs3c/ramadan_bot_server/internal/service"
)

var (
	configPath = flag.String("config", "config.yaml", "path to config file")
	dryRun     = flag.Bool("dry-run", true, "Dry run mode, only count expired flyers")
	timeout    = flag.Duration("timeout", 10*time.Minute, "Abort the cleanup after this long")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Server.Mode, cfg.Server.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.NewDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}

	flyerService := service.NewFlyerService(
		repository.NewGenerationRepository(db),
		repository.NewFlyerJobRepository(db),
		nil, nil, store, logger,
	)

	logger.Info(ctx, "starting expired flyer cleanup", "dry_run", *dryRun, "backend", cfg.Storage.Backend)

	count, err := flyerService.CleanupExpired(ctx, *dryRun)
	if err != nil {
		log.Fatalf("Cleanup failed after %d flyers: %v", count, err)
	}

	if *dryRun {
		logger.Info(ctx, "dry run finished, nothing deleted", "expired", count)
		log.Println("Run with -dry-run=false to actually delete files")
		return
	}
	logger.Info(ctx, "cleanup completed", "deleted", count)
}
