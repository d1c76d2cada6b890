package ledger

import (
	"cmp"
	"slices"
	"strings"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

// SortField names a sortable ledger column.
type SortField string

const (
	SortByDate        SortField = "date"
	SortByAmount      SortField = "amount"
	SortByDescription SortField = "description"
	SortByBalance     SortField = "balance"
)

// ParseSortField falls back to SortByDate for unknown values.
func ParseSortField(s string) SortField {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByAmount, SortByDescription, SortByBalance:
		return f
	}
	return SortByDate
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// ViewState is the immutable state of one ledger table: filters, sort and
// paging. It changes only through Reduce.
type ViewState struct {
	Filters  TransactionFilters `json:"filters"`
	SortBy   SortField          `json:"sortBy"`
	Desc     bool               `json:"desc"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

// DefaultViewState shows the first page in ledger order.
func DefaultViewState() ViewState {
	return ViewState{SortBy: SortByDate, Page: 1, PageSize: DefaultPageSize}
}

// Action is a state transition understood by Reduce.
type Action interface {
	apply(ViewState) ViewState
}

// SetFilters replaces the filter set and returns to the first page.
type SetFilters struct{ Filters TransactionFilters }

// ClearFilters drops every filter and returns to the first page.
type ClearFilters struct{}

// SetSort changes the sort column and direction.
type SetSort struct {
	Field SortField
	Desc  bool
}

// SetPage jumps to a page; values below 1 clamp to 1.
type SetPage struct{ Page int }

// SetPageSize changes the page size and returns to the first page.
type SetPageSize struct{ Size int }

func (a SetFilters) apply(s ViewState) ViewState {
	s.Filters = a.Filters
	s.Page = 1
	return s
}

func (ClearFilters) apply(s ViewState) ViewState {
	s.Filters = TransactionFilters{}
	s.Page = 1
	return s
}

func (a SetSort) apply(s ViewState) ViewState {
	s.SortBy = a.Field
	s.Desc = a.Desc
	return s
}

func (a SetPage) apply(s ViewState) ViewState {
	s.Page = max(a.Page, 1)
	return s
}

func (a SetPageSize) apply(s ViewState) ViewState {
	switch {
	case a.Size <= 0:
		s.PageSize = DefaultPageSize
	case a.Size > MaxPageSize:
		s.PageSize = MaxPageSize
	default:
		s.PageSize = a.Size
	}
	s.Page = 1
	return s
}

// Reduce applies actions in order and returns the new state. s is not modified.
func Reduce(s ViewState, actions ...Action) ViewState {
	for _, a := range actions {
		s = a.apply(s)
	}
	return s
}

// View is everything a ledger table renders for one state.
type View struct {
	Rows           []BalanceRow `json:"rows"`
	Total          int          `json:"total"`
	Page           int          `json:"page"`
	PageSize       int          `json:"pageSize"`
	TotalPages     int          `json:"totalPages"`
	OpeningBalance float64      `json:"openingBalance"`
	ClosingBalance float64      `json:"closingBalance"`
	Stats          Stats        `json:"stats"`
	Check          Discrepancy  `json:"check"`
}

// Select derives the visible page from the full transaction list of one
// account. Running balances come from the unfiltered ledger; stats cover
// every filtered row, not only the current page.
func Select(s ViewState, all []domain.Transaction, opening float64) View {
	full := LedgerRows(all, opening)
	visible := RunningBalancesForView(all, FilterTransactions(all, s.Filters), opening)
	stats := Summarize(visible, opening)
	sortRows(visible, s.SortBy, s.Desc)

	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (len(visible) + size - 1) / size
	page := min(max(s.Page, 1), max(pages, 1))

	start := min((page-1)*size, len(visible))
	end := min(start+size, len(visible))

	return View{
		Rows:           visible[start:end],
		Total:          len(visible),
		Page:           page,
		PageSize:       size,
		TotalPages:     pages,
		OpeningBalance: opening,
		ClosingBalance: ClosingBalance(full, opening),
		Stats:          stats,
		Check:          CrossCheck(full, opening, DefaultTolerance),
	}
}

func sortRows(rows []BalanceRow, field SortField, desc bool) {
	var compare func(a, b BalanceRow) int
	switch field {
	case SortByAmount:
		compare = func(a, b BalanceRow) int { return cmp.Compare(a.Net(), b.Net()) }
	case SortByDescription:
		compare = func(a, b BalanceRow) int {
			return cmp.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		}
	case SortByBalance:
		compare = func(a, b BalanceRow) int { return cmp.Compare(a.RunningBalance, b.RunningBalance) }
	default:
		// rows already arrive in ledger order
		if desc {
			slices.Reverse(rows)
		}
		return
	}
	slices.SortStableFunc(rows, func(a, b BalanceRow) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}
