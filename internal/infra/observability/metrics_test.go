package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
)

func TestMetrics_ImportSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.RecordImport(6, 2, 1)
	m.RecordImport(2, 0, 0)
	res := domain.NewBatchResult("import", 3)
	res.Record("a", nil)
	res.Record("b", errors.New("boom"))
	m.RecordBatch(res)
	m.IncrBalanceMismatch("acc1")
	m.IncrBalanceMismatch("acc2")
	m.IncrCacheHit("accounts")
	m.IncrCacheMiss("accounts")

	snap := m.GetImportSnapshot()

	if snap.RecordsValid != 8 || snap.RecordsInvalid != 2 || snap.RecordsUpdate != 1 {
		t.Errorf("unexpected record counts: %+v", snap)
	}
	if snap.InvalidRate != 0.2 {
		t.Errorf("expected invalid rate 0.2, got %v", snap.InvalidRate)
	}
	if snap.BatchFailures != 1 {
		t.Errorf("expected 1 batch failure, got %d", snap.BatchFailures)
	}
	if snap.BalanceMismatch != 2 {
		t.Errorf("expected 2 mismatches, got %d", snap.BalanceMismatch)
	}
	if snap.CacheHitRate != 0.5 {
		t.Errorf("expected cache hit rate 0.5, got %v", snap.CacheHitRate)
	}
}

func TestNewMetrics_Independent(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()
	a.RecordImport(1, 0, 0)

	if b.GetImportSnapshot().RecordsValid != 0 {
		t.Error("expected registries to be independent")
	}
}

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown, err := observability.InitTracer("", "ledger-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := shutdown(ctx); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}
