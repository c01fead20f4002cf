package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/queue-broker-service/internal/api"
	"github.com/queue-broker-service/internal/api/middleware"
	"github.com/queue-broker-service/internal/config"
	"github.com/queue-broker-service/internal/pkg/database"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/server"
	"github.com/queue-broker-service/internal/service"
	"github.com/queue-broker-service/internal/storage"
	"github.com/queue-broker-service/internal/storage/memstore"
	"github.com/queue-broker-service/internal/storage/postgres"
	queueredis "github.com/queue-broker-service/internal/storage/redis"
	"github.com/queue-broker-service/internal/worker"
)

// Build-time variables
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("starting queue node",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	clock := storage.SystemClock{}

	var pool *pgxpool.Pool
	var driver storage.Driver
	var idempotencyStore storage.IdempotencyStore
	poolMonitorCancel := func() {}

	switch cfg.Storage.Driver {
	case "postgres":
		p, err := database.NewPool(&cfg.Storage.Database)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := database.HealthCheck(context.Background(), p); err != nil {
			log.Fatal("database health check failed", zap.Error(err))
		}
		log.Info("database connection established")

		monitorCtx, cancel := context.WithCancel(context.Background())
		poolMonitorCancel = cancel
		go database.StartPoolMonitor(monitorCtx, p, log, 30*time.Second)

		pool = p
		driver = postgres.NewDriver(p, clock)
		idempotencyStore = postgres.NewIdempotencyStore(p)
	case "redis":
		client, err := queueredis.NewClient(context.Background(), redisURL(cfg.Storage.Redis))
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		log.Info("redis connection established")
		driver = queueredis.NewDriver(client, clock)
		// Redis has no idempotency store of its own; replay keys fall back
		// to an in-process store for this driver.
		idempotencyStore = memstore.New(clock).IdempotencyStore()
	case "memstore":
		store := memstore.New(clock)
		driver = store.Driver()
		idempotencyStore = store.IdempotencyStore()
	default:
		log.Fatal("unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	services := &api.ServiceContainer{
		Queue:   service.NewQueueService(driver.Queue, log),
		Message: service.NewMessageService(driver.Message, log),
		Claim:   service.NewClaimService(driver.Claim, log),
		Idempotency: service.NewIdempotencyService(idempotencyStore, service.IdempotencyConfig{
			TTL:             cfg.Idempotency.TTL,
			CleanupInterval: cfg.Worker.IdempotencyCleanup,
			CleanupBatch:    100,
		}, log),
	}
	log.Info("services initialized")

	router := api.NewRouter(api.RouterConfig{
		Logger:     log,
		Pool:       pool,
		Services:   services,
		Clock:      clock,
		Version:    Version,
		BuildTime:  BuildTime,
		CORSConfig: middleware.DefaultCORSConfig(),
	})

	workerManager := worker.NewManager()

	if _, ok := driver.Claim.(storage.ExpirySweeper); ok {
		expiryWorker := worker.NewExpiryWorker(driver.Claim, clock, worker.ExpiryWorkerConfig{
			Interval: cfg.Worker.ExpiryInterval,
		}, log)
		workerManager.Register(expiryWorker)
	} else {
		log.Info("storage driver does not support bulk claim expiry sweeps; relying on lazy expiry checks")
	}

	statsWorker := worker.NewStatsWorker(services.Queue, worker.StatsWorkerConfig{
		Interval: cfg.Worker.StatsInterval,
		Projects: cfg.Worker.StatsProjects,
	}, log)
	workerManager.Register(statsWorker)

	idempotencyWorker := worker.NewIdempotencyWorker(services.Idempotency, worker.IdempotencyWorkerConfig{
		Interval: cfg.Worker.IdempotencyCleanup,
	}, log.Logger)
	workerManager.Register(idempotencyWorker)

	log.Info("workers initialized")

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Fatal("invalid server port", zap.String("port", cfg.Server.Port), zap.Error(err))
	}

	srv := server.New(router, log, server.Config{
		Host:            cfg.Server.Host,
		Port:            port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerManager.StartAll(workerCtx)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("received shutdown signal")

	workerCancel()
	workerManager.StopAll()
	log.Info("workers stopped")

	poolMonitorCancel()
	if pool != nil {
		pool.Close()
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("queue node stopped")
}

func redisURL(cfg config.RedisConfig) string {
	if cfg.Password == "" {
		return "redis://" + cfg.Addr + "/" + strconv.Itoa(cfg.DB)
	}
	return "redis://:" + cfg.Password + "@" + cfg.Addr + "/" + strconv.Itoa(cfg.DB)
}
