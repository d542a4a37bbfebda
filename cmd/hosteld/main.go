package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"hostel-backend/config"
	"hostel-backend/internal/allocation"
	"hostel-backend/internal/api"
	"hostel-backend/internal/audit"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/db"
	"hostel-backend/internal/inventory"
	"hostel-backend/internal/lifecycle"
	"hostel-backend/internal/logging"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/mw"
	"hostel-backend/internal/notification"
	"hostel-backend/internal/store"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "hosteld")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.String("path", configPath))

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret (or JWT_SECRET) must be set")
	}

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("driver", cfg.Database.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	appStore := store.NewGormStore(gormDB)

	var webpushOptions *webpush.Options
	var pool *notification.WorkerPool
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, logger, recorder)
		pool.Start(ctx)
		logger.Info("push worker pool started", zap.Int("workers", cfg.WorkerPool.Size))
	} else {
		logger.Warn("VAPID keys are not configured, push delivery disabled")
	}

	notifier := notification.NewStoreNotifier(appStore, pool, logger, recorder)
	engine := allocation.NewEngine(appStore, notifier, logger, recorder)

	auditor := audit.NewService(appStore, cfg.Audit.Interval, logger, recorder)
	if cfg.Audit.Enabled {
		go auditor.Run(ctx)
	}

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go limiter.RunJanitor(ctx, time.Minute, 10*time.Minute)

	router := api.NewRouter(api.Deps{
		Store:       appStore,
		Engine:      engine,
		Manager:     lifecycle.NewManager(appStore, engine, notifier, logger, recorder),
		Inventory:   inventory.NewService(appStore, logger),
		Tokens:      auth.NewTokens(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute),
		WebPush:     webpushOptions,
		Log:         logger,
		Auditor:     auditor,
		Limiter:     limiter,
		Gatherer:    registry,
		CORSOrigins: cfg.Server.CORSOrigins,
		CacheTTL:    time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}
	cancel()

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server gracefully stopped")
}
