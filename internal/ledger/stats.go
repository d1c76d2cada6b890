package ledger

import (
	"cmp"
	"slices"
	"strings"
)

// Uncategorized labels transactions without a category in breakdowns.
const Uncategorized = "Uncategorized"

// CategoryTotal is one slice of the category chart.
type CategoryTotal struct {
	Category string  `json:"category"`
	Income   float64 `json:"income"`
	Expense  float64 `json:"expense"`
	Net      float64 `json:"net"`
	Count    int     `json:"count"`
}

// MonthTotal is one bar of the monthly cash-flow chart.
type MonthTotal struct {
	Month   string  `json:"month"` // YYYY-MM
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
	Count   int     `json:"count"`
}

// Stats are the dashboard cards computed over a set of ledger rows.
type Stats struct {
	Count         int             `json:"count"`
	TotalIncome   float64         `json:"totalIncome"`
	TotalExpense  float64         `json:"totalExpense"`
	Net           float64         `json:"net"`
	EndingBalance float64         `json:"endingBalance"`
	Pending       int             `json:"pending"`
	Draft         int             `json:"draft"`
	Categories    []CategoryTotal `json:"categories"`
	Months        []MonthTotal    `json:"months"`
}

// Summarize aggregates rows, which should be in ledger order. EndingBalance
// is the running balance of the last row, or opening when rows is empty.
func Summarize(rows []BalanceRow, opening float64) Stats {
	st := Stats{
		Count:         len(rows),
		EndingBalance: ClosingBalance(rows, opening),
		Categories:    []CategoryTotal{},
		Months:        []MonthTotal{},
	}

	cats := make(map[string]*CategoryTotal)
	months := make(map[string]*MonthTotal)

	for _, r := range rows {
		st.TotalIncome += r.Income
		st.TotalExpense += r.Expense
		switch strings.ToLower(string(r.Status)) {
		case "pending":
			st.Pending++
		case "draft":
			st.Draft++
		}

		name := strings.TrimSpace(r.Category)
		if name == "" {
			name = Uncategorized
		}
		c, ok := cats[name]
		if !ok {
			c = &CategoryTotal{Category: name}
			cats[name] = c
		}
		c.Income += r.Income
		c.Expense += r.Expense
		c.Net += r.Net()
		c.Count++

		if day, ok := r.Date.Time(); ok {
			key := day.Format("2006-01")
			m, ok := months[key]
			if !ok {
				m = &MonthTotal{Month: key}
				months[key] = m
			}
			m.Income += r.Income
			m.Expense += r.Expense
			m.Net += r.Net()
			m.Count++
		}
	}
	st.Net = st.TotalIncome - st.TotalExpense

	for _, c := range cats {
		st.Categories = append(st.Categories, *c)
	}
	slices.SortFunc(st.Categories, func(a, b CategoryTotal) int {
		if c := cmp.Compare(b.Expense, a.Expense); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	for _, m := range months {
		st.Months = append(st.Months, *m)
	}
	slices.SortFunc(st.Months, func(a, b MonthTotal) int {
		return cmp.Compare(a.Month, b.Month)
	})
	return st
}
