package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/checkin-console/internal/facility"
	"github.com/diagnosis/checkin-console/pkg/config"
	"github.com/diagnosis/checkin-console/pkg/database"
	"github.com/diagnosis/checkin-console/pkg/events"
	"github.com/diagnosis/checkin-console/pkg/logger"
	"github.com/diagnosis/checkin-console/services/console/internal/handlers"
	"github.com/diagnosis/checkin-console/services/console/internal/repository"
	"github.com/diagnosis/checkin-console/services/console/internal/service"
)

func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stdout, os.Getenv("LOG_LEVEL")))

	if err := config.Validate(cfg); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		redisOpts.DB = cfg.Redis.DB
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Initialize repositories
	sessionStore := repository.NewRedisSessionStore(rdb, cfg.Session.ImportTTL, cfg.Session.RosterTTL)
	auditRepo := repository.NewAuditRepository(pool)

	// Facility backend
	backend := facility.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)

	// Initialize services
	importService := service.NewImportService(sessionStore, auditRepo, backend, eventBus, cfg)
	checkoutService := service.NewCheckoutService(sessionStore, auditRepo, backend, eventBus, cfg)

	h := handlers.New(importService, checkoutService, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down console service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Console service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting console service", "port", cfg.Server.Port, "backend", cfg.Backend.BaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Console service error", "error", err)
		os.Exit(1)
	}
}
