package ledger

import (
	"strconv"
	"strings"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

// Predicate reports whether an item stays in a filtered view.
type Predicate[T any] func(T) bool

// Apply runs items through each predicate in turn. Every predicate is an
// independent set intersection, so the order of preds does not change the
// result. Nil predicates are skipped.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, len(items))
	copy(out, items)
	for _, p := range preds {
		if p == nil {
			continue
		}
		kept := out[:0]
		for _, it := range out {
			if p(it) {
				kept = append(kept, it)
			}
		}
		out = kept
	}
	return out
}

// isAll reports whether a filter control sits at its "no filter" sentinel.
func isAll(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "all")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// TransactionFilters is the filter bar of a transaction ledger view.
type TransactionFilters struct {
	Search        string   `json:"search,omitempty"`
	Status        string   `json:"status,omitempty"`
	Category      string   `json:"category,omitempty"`
	ProjectID     string   `json:"projectid,omitempty"`
	BankAccountID string   `json:"bankAccountId,omitempty"`
	DateFrom      string   `json:"dateFrom,omitempty"`
	DateTo        string   `json:"dateTo,omitempty"`
	MinAmount     *float64 `json:"minAmount,omitempty"`
	MaxAmount     *float64 `json:"maxAmount,omitempty"`
}

// Active reports whether any filter is set.
func (f TransactionFilters) Active() bool {
	return len(f.Predicates()) > 0
}

// Validate rejects a date bound that is set but unreadable. Predicates skips
// such a bound, so callers validate first.
func (f TransactionFilters) Validate() error {
	for _, bound := range []struct{ field, value string }{
		{"dateFrom", f.DateFrom},
		{"dateTo", f.DateTo},
	} {
		if isAll(bound.value) {
			continue
		}
		if _, ok := domain.TxDate(bound.value).Time(); !ok {
			return &domain.ErrValidation{Field: bound.field, Message: "invalid date " + strconv.Quote(bound.value)}
		}
	}
	return nil
}

// Predicates builds one predicate per active filter. An unreadable date bound
// adds no predicate; see Validate.
func (f TransactionFilters) Predicates() []Predicate[domain.Transaction] {
	var preds []Predicate[domain.Transaction]

	if !isAll(f.Search) {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		preds = append(preds, func(t domain.Transaction) bool {
			return containsFold(t.Description, needle) ||
				containsFold(t.Description2, needle) ||
				containsFold(t.Payer, needle) ||
				containsFold(t.ProjectID, needle) ||
				containsFold(t.ProjectName, needle) ||
				containsFold(t.Category, needle)
		})
	}
	if !isAll(f.Status) {
		status := strings.TrimSpace(f.Status)
		preds = append(preds, func(t domain.Transaction) bool {
			return strings.EqualFold(string(t.Status), status)
		})
	}
	if !isAll(f.Category) {
		category := strings.TrimSpace(f.Category)
		preds = append(preds, func(t domain.Transaction) bool {
			return strings.EqualFold(t.Category, category)
		})
	}
	if !isAll(f.ProjectID) {
		project := strings.TrimSpace(f.ProjectID)
		preds = append(preds, func(t domain.Transaction) bool {
			return strings.EqualFold(t.ProjectID, project) || strings.EqualFold(t.ProjectName, project)
		})
	}
	if !isAll(f.BankAccountID) {
		account := strings.TrimSpace(f.BankAccountID)
		preds = append(preds, func(t domain.Transaction) bool {
			return t.BankAccountID == account
		})
	}
	if from, ok := domain.TxDate(f.DateFrom).Time(); ok {
		preds = append(preds, func(t domain.Transaction) bool {
			day, ok := t.Date.Time()
			return ok && !day.Before(from)
		})
	}
	if to, ok := domain.TxDate(f.DateTo).Time(); ok {
		preds = append(preds, func(t domain.Transaction) bool {
			day, ok := t.Date.Time()
			return ok && !day.After(to)
		})
	}
	if f.MinAmount != nil {
		lo := *f.MinAmount
		preds = append(preds, func(t domain.Transaction) bool {
			return t.Amount() >= lo
		})
	}
	if f.MaxAmount != nil {
		hi := *f.MaxAmount
		preds = append(preds, func(t domain.Transaction) bool {
			return t.Amount() <= hi
		})
	}
	return preds
}

// FilterTransactions applies every active filter in f.
func FilterTransactions(txs []domain.Transaction, f TransactionFilters) []domain.Transaction {
	return Apply(txs, f.Predicates()...)
}

// ProjectFilters is the filter bar of the project list.
type ProjectFilters struct {
	Search      string   `json:"search,omitempty"`
	Status      string   `json:"status,omitempty"`
	BODCategory string   `json:"bodCategory,omitempty"`
	Year        string   `json:"year,omitempty"`
	MinBudget   *float64 `json:"minBudget,omitempty"`
	MaxBudget   *float64 `json:"maxBudget,omitempty"`
}

// ProjectYear returns the year encoded in the project code, falling back to
// the event date.
func ProjectYear(p domain.Project) (int, bool) {
	if code, err := domain.ParseProjectCode(p.ProjectID); err == nil {
		return code.Year, true
	}
	if day, ok := p.EventDate.Time(); ok {
		return day.Year(), true
	}
	return 0, false
}

// Predicates builds one predicate per active filter.
func (f ProjectFilters) Predicates() []Predicate[domain.Project] {
	var preds []Predicate[domain.Project]

	if !isAll(f.Search) {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		preds = append(preds, func(p domain.Project) bool {
			return containsFold(p.Name, needle) ||
				containsFold(p.ProjectID, needle) ||
				containsFold(p.Description, needle)
		})
	}
	if !isAll(f.Status) {
		status := strings.TrimSpace(f.Status)
		preds = append(preds, func(p domain.Project) bool {
			return strings.EqualFold(string(p.Status), status)
		})
	}
	if !isAll(f.BODCategory) {
		bod := strings.TrimSpace(f.BODCategory)
		preds = append(preds, func(p domain.Project) bool {
			return strings.EqualFold(string(p.BODCategory), bod)
		})
	}
	if !isAll(f.Year) {
		want, err := strconv.Atoi(strings.TrimSpace(f.Year))
		preds = append(preds, func(p domain.Project) bool {
			year, ok := ProjectYear(p)
			return err == nil && ok && year == want
		})
	}
	if f.MinBudget != nil {
		lo := *f.MinBudget
		preds = append(preds, func(p domain.Project) bool {
			return p.Budget >= lo
		})
	}
	if f.MaxBudget != nil {
		hi := *f.MaxBudget
		preds = append(preds, func(p domain.Project) bool {
			return p.Budget <= hi
		})
	}
	return preds
}

// FilterProjects applies every active filter in f.
func FilterProjects(projects []domain.Project, f ProjectFilters) []domain.Project {
	return Apply(projects, f.Predicates()...)
}
