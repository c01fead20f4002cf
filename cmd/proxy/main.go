package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/queue-broker-service/internal/api"
	"github.com/queue-broker-service/internal/api/middleware"
	"github.com/queue-broker-service/internal/config"
	"github.com/queue-broker-service/internal/pkg/database"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/server"
	"github.com/queue-broker-service/internal/service"
	"github.com/queue-broker-service/internal/storage/postgres"
)

// Build-time variables
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// main wires the proxy process: the catalogue and partition controllers
// that route requests to the right queue node, per spec.md §4.4-§4.5.
// Catalogue and Partition are postgres-only capabilities (see
// internal/storage/redis's package doc), so the proxy always runs
// against postgres regardless of what STORAGE_DRIVER the queue nodes use.
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

	log.Info("starting proxy",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	pool, err := database.NewPool(&cfg.Storage.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.HealthCheck(context.Background(), pool); err != nil {
		log.Fatal("database health check failed", zap.Error(err))
	}
	log.Info("database connection established")

	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()
	go database.StartPoolMonitor(monitorCtx, pool, log, 30*time.Second)

	catalogueStore := postgres.NewCatalogueStore(pool)
	partitionStore := postgres.NewPartitionStore(pool)

	services := &api.ServiceContainer{
		Catalogue: service.NewCatalogueService(catalogueStore, log),
		Partition: service.NewPartitionService(partitionStore, log),
	}
	log.Info("services initialized")

	if cfg.Partition.SeedName != "" {
		if err := services.Partition.Create(context.Background(), cfg.Partition.SeedName, cfg.Partition.SeedWeight, cfg.Partition.SeedNodes); err != nil {
			log.Warn("partition seed skipped", zap.String("partition", cfg.Partition.SeedName), zap.Error(err))
		} else {
			log.Info("seeded partition", zap.String("partition", cfg.Partition.SeedName))
		}
	}

	router := api.NewProxyRouter(api.RouterConfig{
		Logger:     log,
		Pool:       pool,
		Services:   services,
		Version:    Version,
		BuildTime:  BuildTime,
		CORSConfig: middleware.DefaultCORSConfig(),
	})

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

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("received shutdown signal")

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("proxy stopped")
}
