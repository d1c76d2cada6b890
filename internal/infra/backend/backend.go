// Package backend opens the document store selected by STORE_BACKEND.
package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/org-finance-bfa-go/internal/config"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/memory"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/sqlite"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"

	"go.uber.org/zap"
)

// Open returns the configured document store and a function that releases it.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.DocumentStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendSupabase:
		logger.Info("using Supabase as document store", zap.String("supabase_url", cfg.SupabaseURL))
		client := supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
				MaxConcurrency: cfg.MaxConcurrency,
			},
			logger,
		)
		return client, noop, nil

	case config.BackendSQLite:
		logger.Info("using SQLite as document store", zap.String("path", cfg.SQLitePath))
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, store.Close, nil

	case config.BackendMemory:
		logger.Warn("using in-memory document store, data is lost on exit")
		return memory.New(), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
