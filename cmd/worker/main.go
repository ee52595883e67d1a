package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/qs3c/ramadan_bot_server/config"
	"github.com/qs3c/ramadan_bot_server/internal/database"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/flyer"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/pubsub"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/queue"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/storage"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
	"github.com/qs3c/ramadan_bot_server/internal/worker"
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

	// 监听退出信号
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.NewDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	// worker 必须有 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	defer rdb.Close()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}

	renderer, err := flyer.NewRenderer(cfg.Flyer.BackgroundPath, cfg.Flyer.Width, cfg.Flyer.Height)
	if err != nil {
		log.Fatalf("Failed to init flyer renderer: %v", err)
	}

	// 初始化 Queue 和 Pub/Sub
	jobQueue := queue.NewQueue(rdb, cfg.Queue.FlyerQueue)
	publisher := pubsub.NewPublisher(rdb)

	jobRepo := repository.NewFlyerJobRepository(db)
	genRepo := repository.NewGenerationRepository(db)

	processor := worker.NewProcessor(jobRepo, genRepo, renderer, store, publisher, cfg, logger)

	// 丢失的队列消息由 requeuer 补推
	requeuer := worker.NewRequeuer(jobRepo, jobQueue, logger)
	go requeuer.Start(ctx)

	logger.Info(ctx, "worker started", "max_workers", cfg.Queue.MaxWorkers, "queue", cfg.Queue.FlyerQueue)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Queue.MaxWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			runWorker(ctx, workerID, jobQueue, processor, logger)
		}(i)
	}

	wg.Wait()
	logger.Info(context.Background(), "worker shutdown complete")
}

// runWorker 循环取任务，直到 ctx 取消
func runWorker(ctx context.Context, workerID int, jobQueue *queue.Queue, processor *worker.Processor, logger logging.Logger) {
	log := logger.With("worker_id", workerID)

	for {
		select {
		case <-ctx.Done():
			log.Info(context.Background(), "worker shutting down")
			return
		default:
		}

		msg, err := jobQueue.Pop(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn(ctx, "failed to pop job", "error", err)
			continue
		}
		if msg == nil {
			continue // 超时，继续等待
		}

		// 已领取的任务在退出前做完
		if err := processor.Process(context.WithoutCancel(ctx), msg); err != nil {
			log.Error(ctx, "flyer job failed", "job_id", msg.JobID, "error", err)
		}
	}
}
