package ledger_test

import (
	"testing"

	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
)

func TestReduce_FilterResetsPage(t *testing.T) {
	s := ledger.Reduce(ledger.DefaultViewState(), ledger.SetPage{Page: 3})
	if s.Page != 3 {
		t.Fatalf("expected page 3, got %d", s.Page)
	}

	next := ledger.Reduce(s, ledger.SetFilters{Filters: ledger.TransactionFilters{Status: "Pending"}})

	if next.Page != 1 {
		t.Errorf("expected filter change to reset page, got %d", next.Page)
	}
	if s.Filters.Status != "" {
		t.Error("Reduce modified the previous state")
	}
}

func TestReduce_PageSizeClamp(t *testing.T) {
	s := ledger.Reduce(ledger.DefaultViewState(), ledger.SetPageSize{Size: 10_000})
	if s.PageSize != ledger.MaxPageSize {
		t.Errorf("expected %d, got %d", ledger.MaxPageSize, s.PageSize)
	}
	s = ledger.Reduce(s, ledger.SetPageSize{Size: 0}, ledger.SetPage{Page: -4})
	if s.PageSize != ledger.DefaultPageSize || s.Page != 1 {
		t.Errorf("unexpected state %+v", s)
	}
}

func TestSelect_PagingAndBalances(t *testing.T) {
	all := sampleLedger()
	s := ledger.Reduce(ledger.DefaultViewState(), ledger.SetPageSize{Size: 2}, ledger.SetPage{Page: 2})

	v := ledger.Select(s, all, 100)

	if v.Total != 5 || v.TotalPages != 3 || v.Page != 2 {
		t.Fatalf("unexpected paging: total=%d pages=%d page=%d", v.Total, v.TotalPages, v.Page)
	}
	if len(v.Rows) != 2 || v.Rows[0].ID != "t3" {
		t.Fatalf("unexpected page rows: %+v", v.Rows)
	}
	if v.Rows[0].RunningBalance != 780 {
		t.Errorf("expected 780 after t3, got %v", v.Rows[0].RunningBalance)
	}
	if !v.Check.OK {
		t.Errorf("expected consistent ledger, got %+v", v.Check)
	}
}

func TestSelect_FilteredBalancesMatchFullLedger(t *testing.T) {
	all := sampleLedger()
	unfiltered := ledger.Select(ledger.Reduce(ledger.DefaultViewState(), ledger.SetPageSize{Size: 50}), all, 0)
	want := make(map[string]float64)
	for _, r := range unfiltered.Rows {
		want[r.ID] = r.RunningBalance
	}

	s := ledger.Reduce(ledger.DefaultViewState(),
		ledger.SetFilters{Filters: ledger.TransactionFilters{Category: "Events"}},
		ledger.SetSort{Field: ledger.SortByAmount, Desc: true},
	)
	v := ledger.Select(s, all, 0)

	if v.Total != 2 {
		t.Fatalf("expected 2 event rows, got %d", v.Total)
	}
	for _, r := range v.Rows {
		if r.RunningBalance != want[r.ID] {
			t.Errorf("row %s: filtered balance %v, unfiltered %v", r.ID, r.RunningBalance, want[r.ID])
		}
	}
	if v.ClosingBalance != unfiltered.ClosingBalance {
		t.Errorf("closing balance changed with filter: %v vs %v", v.ClosingBalance, unfiltered.ClosingBalance)
	}
}

func TestSelect_DateDescending(t *testing.T) {
	s := ledger.Reduce(ledger.DefaultViewState(), ledger.SetSort{Field: ledger.SortByDate, Desc: true})
	v := ledger.Select(s, sampleLedger(), 0)
	if v.Rows[0].ID != "t5" || v.Rows[len(v.Rows)-1].ID != "t1" {
		t.Errorf("unexpected order: first=%s last=%s", v.Rows[0].ID, v.Rows[len(v.Rows)-1].ID)
	}
}

func TestParseSortField(t *testing.T) {
	if ledger.ParseSortField("Balance") != ledger.SortByBalance {
		t.Error("expected balance")
	}
	if ledger.ParseSortField("bogus") != ledger.SortByDate {
		t.Error("expected fallback to date")
	}
}
