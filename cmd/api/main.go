package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumonew/internal/audit"
	"lumonew/internal/config"
	"lumonew/internal/database"
	"lumonew/internal/feed"
	"lumonew/internal/logger"
	"lumonew/internal/server"
	"lumonew/internal/services"
	"lumonew/internal/store"
	"lumonew/internal/validator"

	"gorm.io/gorm"
)

// @title           LUMONEW Audit Trail API
// @version         1.0
// @description     Audit trail of the LUMONEW inventory dashboard: filtered queries, statistics, recent activity and ingestion.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Ingestion key for business services.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()
	clock := audit.SystemClock{Location: appConfig.Location}

	var db *gorm.DB
	if appConfig.AuditStore != config.StoreREST {
		dbConfig, err := database.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load database configuration: %w", err)
		}

		dbManager, err := database.NewManager(dbConfig)
		if err != nil {
			return fmt.Errorf("failed to create database manager: %w", err)
		}
		defer func() { _ = dbManager.Close() }()

		if err := dbManager.Migrate(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		db = dbManager.DB()
	}

	auditStore, err := store.Open(appConfig, db, clock)
	if err != nil {
		return fmt.Errorf("failed to open audit store: %w", err)
	}

	// Initialize services
	queryService := services.NewAuditQueryService(auditStore, clock)
	auditService := services.NewAuditService(auditStore, clock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recent := feed.New(queryService, feed.Config{Size: appConfig.FeedSize, Interval: appConfig.FeedInterval},
		feed.WithClock(clock))
	if err := recent.Start(ctx); err != nil {
		return fmt.Errorf("failed to start activity feed: %w", err)
	}
	defer recent.Stop()

	router := server.NewRouter(appConfig, server.Deps{
		Query:    queryService,
		Recorder: auditService,
		Feed:     recent,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	log.Infow("server started",
		"port", appConfig.Port,
		"audit_store", appConfig.AuditStore,
		"feed_size", recent.Config().Size,
		"feed_interval", recent.Config().Interval.String(),
	)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErrCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
