// Package ledger holds the pure derivations behind the bank ledger views:
// running balances, filter pipelines, dashboard statistics, project spending,
// stock cards and the view-state reducer.
package ledger

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

// DefaultTolerance is the largest difference accepted when cross-checking
// a computed closing balance against the account totals.
const DefaultTolerance = 0.01

// BalanceRow is a transaction together with the account balance right after it.
type BalanceRow struct {
	domain.Transaction
	RunningBalance float64 `json:"runningBalance"`
}

// ComputeRunningBalances walks txs in the given order, which must already be
// ascending by date, and accumulates each net amount onto opening.
// The input slice is not modified.
func ComputeRunningBalances(txs []domain.Transaction, opening float64) []BalanceRow {
	rows := make([]BalanceRow, len(txs))
	balance := opening
	for i, t := range txs {
		balance += t.Income - t.Expense
		rows[i] = BalanceRow{Transaction: t, RunningBalance: balance}
	}
	return rows
}

type ledgerKey struct {
	day   time.Time
	dated bool
	seq   *int
}

func keyOf(t domain.Transaction) ledgerKey {
	k := ledgerKey{}.withDate(t.Date)
	k.seq = t.SequenceNumber
	return k
}

func (k ledgerKey) withDate(d domain.TxDate) ledgerKey {
	k.day, k.dated = d.Time()
	return k
}

// compareKeys orders undated entries first, then by day, then by manual
// sequence number (entries without one go last within the day).
func compareKeys(a, b ledgerKey) int {
	if a.dated != b.dated {
		if !a.dated {
			return -1
		}
		return 1
	}
	if c := a.day.Compare(b.day); c != 0 {
		return c
	}
	switch {
	case a.seq != nil && b.seq != nil:
		return cmp.Compare(*a.seq, *b.seq)
	case a.seq != nil:
		return -1
	case b.seq != nil:
		return 1
	}
	return 0
}

// SortForLedger returns a copy of txs in ledger order: ascending date, then
// sequence number, then original position.
func SortForLedger(txs []domain.Transaction) []domain.Transaction {
	type keyed struct {
		tx  domain.Transaction
		key ledgerKey
	}
	tmp := make([]keyed, len(txs))
	for i, t := range txs {
		tmp[i] = keyed{tx: t, key: keyOf(t)}
	}
	slices.SortStableFunc(tmp, func(a, b keyed) int {
		return compareKeys(a.key, b.key)
	})

	out := make([]domain.Transaction, len(tmp))
	for i, k := range tmp {
		out[i] = k.tx
	}
	return out
}

// LedgerRows sorts txs into ledger order and computes their running balances.
func LedgerRows(txs []domain.Transaction, opening float64) []BalanceRow {
	return ComputeRunningBalances(SortForLedger(txs), opening)
}

// RunningBalancesForView returns running balances for the visible subset of
// all. Balances are always taken from the full, unfiltered ledger, so a row
// shows the same value whatever filter produced it. Visible rows are returned
// in ledger order.
func RunningBalancesForView(all, visible []domain.Transaction, opening float64) []BalanceRow {
	full := LedgerRows(all, opening)
	byID := make(map[string]float64, len(full))
	for _, r := range full {
		if r.ID != "" {
			byID[r.ID] = r.RunningBalance
		}
	}

	out := make([]BalanceRow, 0, len(visible))
	for _, v := range visible {
		rb, ok := byID[v.ID]
		if !ok {
			rb = BalanceAsOf(full, opening, v.Date)
		}
		out = append(out, BalanceRow{Transaction: v, RunningBalance: rb})
	}
	slices.SortStableFunc(out, func(a, b BalanceRow) int {
		return compareKeys(keyOf(a.Transaction), keyOf(b.Transaction))
	})
	return out
}

// BalanceAsOf returns the balance after the last ledger row dated on or
// before date. rows must be in ledger order.
func BalanceAsOf(rows []BalanceRow, opening float64, date domain.TxDate) float64 {
	target, ok := date.Time()
	if !ok {
		return opening
	}
	balance := opening
	for _, r := range rows {
		day, dated := r.Date.Time()
		if dated && day.After(target) {
			break
		}
		balance = r.RunningBalance
	}
	return balance
}

// ClosingBalance is the balance after the last row, or opening when empty.
func ClosingBalance(rows []BalanceRow, opening float64) float64 {
	if len(rows) == 0 {
		return opening
	}
	return rows[len(rows)-1].RunningBalance
}

// Discrepancy is the outcome of CrossCheck.
type Discrepancy struct {
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
	OK         bool    `json:"ok"`
}

// CrossCheck compares the closing running balance with opening plus total
// income minus total expense. A difference above tolerance is reported as
// not OK; callers log it and carry on.
func CrossCheck(rows []BalanceRow, opening, tolerance float64) Discrepancy {
	var income, expense float64
	for _, r := range rows {
		income += r.Income
		expense += r.Expense
	}
	expected := opening + income - expense
	actual := ClosingBalance(rows, opening)
	diff := actual - expected
	return Discrepancy{
		Expected:   expected,
		Actual:     actual,
		Difference: diff,
		OK:         math.Abs(diff) <= tolerance,
	}
}
