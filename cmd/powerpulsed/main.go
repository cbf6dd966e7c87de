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
	"go.uber.org/zap"

	"powerpulse-backend/config"
	"powerpulse-backend/internal/analytics"
	"powerpulse-backend/internal/api"
	"powerpulse-backend/internal/coach"
	"powerpulse-backend/internal/db"
	"powerpulse-backend/internal/ingest"
	"powerpulse-backend/internal/logging"
	"powerpulse-backend/internal/notification"
	"powerpulse-backend/internal/store"
	"powerpulse-backend/internal/weather"
)

func main() {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "powerpulsed")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Warn("VAPID keys not configured, offline push alerts are disabled")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("driver", cfg.Database.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	snapshotTTL := time.Duration(cfg.Ingest.CacheTTLSeconds) * time.Second
	snapshot := store.NewSnapshotStore(appStore, snapshotTTL, logger)

	weatherSvc := weather.NewService(
		cfg.Weather.BaseURL, cfg.Weather.Timeout,
		time.Duration(cfg.Weather.CacheTTLSeconds)*time.Second,
		snapshot, logger)

	engine := analytics.NewService(snapshot, weatherSvc,
		cfg.Emissions.GridKgPerKWh, cfg.Ingest.IntervalMinutes,
		analytics.TariffRates{
			PeakStartHour:    cfg.Tariff.PeakStartHour,
			PeakEndHour:      cfg.Tariff.PeakEndHour,
			PeakUSDPerKWh:    cfg.Tariff.PeakUSDPerKWh,
			OffPeakUSDPerKWh: cfg.Tariff.OffPeakUSDPerKWh,
		}, logger)

	coachSvc := coach.NewService(cfg.Coach.URL, os.Getenv(cfg.Coach.APIKeyEnv),
		cfg.Coach.Timeout, cfg.Coach.MaxTurns, logger)

	var pool *notification.WorkerPool
	var dispatcher ingest.AlertDispatcher
	if webpushOptions != nil {
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, logger)
		pool.Start(ctx)
		dispatcher = pool
	}

	ingester := ingest.NewService(cfg, appStore, snapshot, dispatcher, logger)
	go ingester.Run(ctx)

	handler := api.NewHandler(engine, weatherSvc, coachSvc, appStore, webpushOptions, logger)
	router := api.NewRouter(&cfg.Server, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.WrapCORS(&cfg.Server, router),
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("HTTP server shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
