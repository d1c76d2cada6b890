package ledger_test

import (
	"math"
	"testing"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
)

func seq(n int) *int { return &n }

func sampleLedger() []domain.Transaction {
	return []domain.Transaction{
		{ID: "t3", Date: "2024-02-01", Description: "Membership fees", Income: 300, Category: "Fees", Status: domain.StatusCompleted},
		{ID: "t1", Date: "2024-01-05", Description: "Venue deposit", Expense: 120, Category: "Events", Status: domain.StatusCompleted},
		{ID: "t2", Date: "2024-01-05", Description: "Sponsorship", Income: 500, Category: "Sponsors", Status: domain.StatusPending},
		{ID: "t4", Date: "2024-02-10", Description: "Printing", Expense: 80.5, Category: "Events", Status: domain.StatusDraft},
		{ID: "t5", Date: "2024-03-01", Description: "Bank charges", Expense: 2.25, Status: domain.StatusCompleted},
	}
}

func TestComputeRunningBalances_Example(t *testing.T) {
	txs := []domain.Transaction{
		{Income: 50, Expense: 0},
		{Income: 0, Expense: 30},
	}

	rows := ledger.ComputeRunningBalances(txs, 100)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].RunningBalance != 150 {
		t.Errorf("expected 150, got %v", rows[0].RunningBalance)
	}
	if rows[1].RunningBalance != 120 {
		t.Errorf("expected 120, got %v", rows[1].RunningBalance)
	}
}

func TestComputeRunningBalances_PrefixSums(t *testing.T) {
	txs := ledger.SortForLedger(sampleLedger())
	opening := 1000.0

	rows := ledger.ComputeRunningBalances(txs, opening)

	sum := opening
	for i, tx := range txs {
		sum += tx.Net()
		if math.Abs(rows[i].RunningBalance-sum) > 1e-9 {
			t.Errorf("row %d: expected %v, got %v", i, sum, rows[i].RunningBalance)
		}
	}
}

func TestComputeRunningBalances_DoesNotMutateOrSort(t *testing.T) {
	txs := sampleLedger()
	before := txs[0].ID

	rows := ledger.ComputeRunningBalances(txs, 0)

	if txs[0].ID != before {
		t.Fatal("input was reordered")
	}
	if rows[0].ID != "t3" {
		t.Errorf("expected input order to be kept, first row is %s", rows[0].ID)
	}
}

func TestComputeRunningBalances_Empty(t *testing.T) {
	rows := ledger.ComputeRunningBalances(nil, 42)
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
	if got := ledger.ClosingBalance(rows, 42); got != 42 {
		t.Errorf("expected closing balance 42, got %v", got)
	}
}

func TestSortForLedger_DateThenSequence(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "b", Date: "2024-01-02", SequenceNumber: seq(2)},
		{ID: "c", Date: "2024-01-02"},
		{ID: "a", Date: "2024-01-02", SequenceNumber: seq(1)},
		{ID: "z", Date: "2024-01-01"},
		{ID: "legacy", Date: "not a date"},
	}

	sorted := ledger.SortForLedger(txs)

	want := []string{"legacy", "z", "a", "b", "c"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, sorted[i].ID)
		}
	}
	if txs[0].ID != "b" {
		t.Error("SortForLedger modified its input")
	}
}

func TestRunningBalancesForView_FilterInvariant(t *testing.T) {
	all := sampleLedger()
	opening := 250.0

	full := ledger.LedgerRows(all, opening)
	want := make(map[string]float64)
	for _, r := range full {
		want[r.ID] = r.RunningBalance
	}

	filters := []ledger.TransactionFilters{
		{Category: "Events"},
		{Status: "Pending"},
		{Search: "fees"},
		{DateFrom: "2024-02-01", DateTo: "2024-02-28"},
	}
	for _, f := range filters {
		visible := ledger.FilterTransactions(all, f)
		rows := ledger.RunningBalancesForView(all, visible, opening)
		if len(rows) != len(visible) {
			t.Fatalf("%+v: expected %d rows, got %d", f, len(visible), len(rows))
		}
		for _, r := range rows {
			if r.RunningBalance != want[r.ID] {
				t.Errorf("%+v: row %s balance %v, unfiltered %v", f, r.ID, r.RunningBalance, want[r.ID])
			}
		}
	}
}

func TestRunningBalancesForView_RowWithoutID(t *testing.T) {
	all := sampleLedger()
	visible := []domain.Transaction{{Date: "2024-01-31", Description: "draft entry"}}

	rows := ledger.RunningBalancesForView(all, visible, 0)

	// Balance as of 2024-01-31 covers the two January entries.
	if rows[0].RunningBalance != 380 {
		t.Errorf("expected 380, got %v", rows[0].RunningBalance)
	}
}

func TestCrossCheck(t *testing.T) {
	rows := ledger.LedgerRows(sampleLedger(), 100)

	d := ledger.CrossCheck(rows, 100, ledger.DefaultTolerance)
	if !d.OK {
		t.Fatalf("expected consistent ledger, got %+v", d)
	}

	rows[len(rows)-1].RunningBalance += 0.5
	d = ledger.CrossCheck(rows, 100, ledger.DefaultTolerance)
	if d.OK {
		t.Fatal("expected a mismatch above tolerance")
	}
	if math.Abs(d.Difference-0.5) > 1e-9 {
		t.Errorf("expected difference 0.5, got %v", d.Difference)
	}
}

func TestBalanceAsOf_BeforeFirstRow(t *testing.T) {
	rows := ledger.LedgerRows(sampleLedger(), 10)
	if got := ledger.BalanceAsOf(rows, 10, "2023-12-31"); got != 10 {
		t.Errorf("expected opening balance, got %v", got)
	}
}
