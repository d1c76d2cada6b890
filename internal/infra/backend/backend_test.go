package backend_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/boddenberg/org-finance-bfa-go/internal/config"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/backend"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"

	"go.uber.org/zap"
)

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()

	for _, cfg := range []*config.Config{
		{StoreBackend: config.BackendMemory},
		{StoreBackend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "ledger.db")},
	} {
		t.Run(cfg.StoreBackend, func(t *testing.T) {
			store, closeFn, err := backend.Open(ctx, cfg, zap.NewNop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer closeFn()

			id, err := store.Add(ctx, port.CollectionAccounts, map[string]any{"name": "Main"})
			if err != nil || id == "" {
				t.Fatalf("Add: id=%q err=%v", id, err)
			}
			if err := store.Ping(ctx); err != nil {
				t.Errorf("Ping: %v", err)
			}
		})
	}
}

func TestOpen_SupabaseNeedsNoNetwork(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendSupabase, SupabaseURL: "http://127.0.0.1:1", MaxConcurrency: 2}
	store, closeFn, err := backend.Open(context.Background(), cfg, zap.NewNop())
	if err != nil || store == nil {
		t.Fatalf("expected a client, got %v", err)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, _, err := backend.Open(context.Background(), &config.Config{StoreBackend: "mongo"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
