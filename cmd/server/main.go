package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/ramadan_bot_server/config"
	"github.com/qs3c/ramadan_bot_server/internal/api"
	"github.com/qs3c/ramadan_bot_server/internal/api/handler"
	"github.com/qs3c/ramadan_bot_server/internal/api/middleware"
	"github.com/qs3c/ramadan_bot_server/internal/database"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/cron"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/flyer"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/llm"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/pubsub"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/queue"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/storage"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/ws"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
	"github.com/qs3c/ramadan_bot_server/internal/service"
)

var configPath = flag.String("config", "config.yaml", "path to config file")

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Server.Mode, cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.JWT.Ephemeral {
		logger.Warn(ctx, "jwt.secret is not set, using a random secret; sessions end on restart")
	}

	// 初始化数据库
	db, err := database.NewDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	logger.Info(ctx, "database connected", "driver", cfg.Database.Driver)

	// Redis 可选，不可用时关闭分享与统计缓存
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, flyer sharing disabled", "error", err)
	}

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	genRepo := repository.NewGenerationRepository(db)
	jobRepo := repository.NewFlyerJobRepository(db)

	// 初始化 Service
	quotaService := service.NewQuotaService(userRepo, genRepo, cfg)
	authService := service.NewAuthService(userRepo, cfg)
	userService := service.NewUserService(userRepo, quotaService)
	generationService := service.NewGenerationService(userRepo, genRepo, quotaService, llm.NewClient(cfg), logger)
	if cfg.LLM.APIKey == "" {
		logger.Warn(ctx, "llm api key is not configured, generation will fail")
	}

	renderer, err := flyer.NewRenderer(cfg.Flyer.BackgroundPath, cfg.Flyer.Width, cfg.Flyer.Height)
	if err != nil {
		log.Fatalf("Failed to init flyer renderer: %v", err)
	}
	if cfg.Flyer.BackgroundPath != "" && !renderer.HasBackground() {
		logger.Warn(ctx, "flyer background could not be loaded, using solid fill", "path", cfg.Flyer.BackgroundPath)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Warn(ctx, "flyer storage unavailable, sharing disabled", "backend", cfg.Storage.Backend, "error", err)
	}

	var jobQueue service.JobQueue
	if rdb != nil && store != nil {
		jobQueue = queue.NewQueue(rdb, cfg.Queue.FlyerQueue)
	}

	flyerService := service.NewFlyerService(genRepo, jobRepo, renderer, jobQueue, store, logger)
	adminService := service.NewAdminService(userRepo, genRepo, quotaService, rdb, logger)
	verseService := service.NewVerseService(quotaService.Location())

	// WebSocket Hub 转发 worker 的进度消息
	wsHub := ws.NewHub(logger)
	if rdb != nil {
		go subscribeProgress(ctx, rdb, wsHub, logger)
	}

	// 定时任务
	var cleaner cron.Cleaner
	if store != nil {
		cleaner = flyerService
	}
	cronService := cron.NewService(cleaner, adminService, quotaService, logger)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Handler
	if err := middleware.RegisterValidators(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}
	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService, quotaService),
		handler.NewGenerationHandler(generationService),
		handler.NewFlyerHandler(flyerService),
		handler.NewAdminHandler(adminService),
		handler.NewVerseHandler(verseService),
		handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins, logger),
		cfg,
		logger,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown failed", "error", err)
	}
	if rdb != nil {
		rdb.Close()
	}
}

// subscribeProgress 断线后重新订阅，直到 ctx 取消
func subscribeProgress(ctx context.Context, rdb *redis.Client, hub *ws.Hub, logger logging.Logger) {
	subscriber := pubsub.NewSubscriber(rdb)
	for {
		err := subscriber.Subscribe(ctx, hub.ForwardProgress)
		if ctx.Err() != nil {
			return
		}
		logger.Warn(ctx, "progress subscription ended, retrying", "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}
