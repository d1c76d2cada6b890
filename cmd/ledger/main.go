package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/org-finance-bfa-go/internal/config"
	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/handler"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/backend"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/cache"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/collections"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/gcs"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Bool("auth_enabled", cfg.AuthEnabled),
		zap.Float64("balance_tolerance", cfg.BalanceTolerance),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "org-finance-ledger")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	docs, closeStore, err := backend.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()
	store := collections.New(docs)

	// --- Cache ---
	accountCache := cache.New[[]domain.BankAccount](cfg.CacheTTL)
	defer accountCache.Close()

	// --- Export archive ---
	var archiver port.Archiver
	if cfg.ExportBucket != "" {
		gcsArchiver, err := gcs.NewArchiver(context.Background(), cfg.ExportBucket, cfg.ExportPrefix, logger)
		if err != nil {
			logger.Fatal("failed to init export archive", zap.Error(err))
		}
		defer gcsArchiver.Close()
		archiver = gcsArchiver
		logger.Info("export archive enabled", zap.String("bucket", cfg.ExportBucket))
	}

	// --- Services ---
	ledgerSvc := service.NewLedgerService(store, accountCache, cfg.BalanceTolerance, metrics, logger)
	projectSvc := service.NewProjectService(store, store, metrics, logger)
	services := handler.Services{
		Ledger:      ledgerSvc,
		Import:      service.NewImportService(store, metrics, logger),
		Projects:    projectSvc,
		Merchandise: service.NewMerchandiseService(store, metrics, logger),
		Dashboard:   service.NewDashboardService(store, store, cfg.BalanceTolerance, metrics, logger),
		Export:      service.NewExportService(ledgerSvc, projectSvc, archiver, metrics, logger),
		Auth:        service.NewAuthService(cfg.EditorUsername, cfg.EditorPasswordHash, cfg.JWTSecret, cfg.JWTAccessTTL, logger),
	}
	if !cfg.AuthEnabled {
		logger.Warn("auth disabled, write routes are open")
	}

	// --- Router ---
	router := handler.NewRouter(services, docs, handler.Options{
		AuthEnabled:    cfg.AuthEnabled,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		ImportRate:     rate.Limit(cfg.ImportRatePerSec),
		ImportBurst:    cfg.ImportBurst,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
