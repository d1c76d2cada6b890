package ledger

import (
	"strings"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

// AssignProject finds the project a transaction belongs to. Matching is soft
// and tiered: exact code, case-insensitive code, project name, then
// substring containment between codes. The first tier with a hit wins, so a
// transaction is never counted against two projects.
func AssignProject(t domain.Transaction, projects []domain.Project) (int, bool) {
	code := strings.TrimSpace(t.ProjectID)
	name := strings.TrimSpace(t.ProjectName)
	if code == "" && name == "" {
		return -1, false
	}

	tiers := []func(p domain.Project) bool{
		func(p domain.Project) bool { return code != "" && p.ProjectID == code },
		func(p domain.Project) bool { return code != "" && strings.EqualFold(p.ProjectID, code) },
		func(p domain.Project) bool {
			return (name != "" && strings.EqualFold(p.Name, name)) ||
				(code != "" && strings.EqualFold(p.Name, code))
		},
		func(p domain.Project) bool {
			if code == "" || p.ProjectID == "" {
				return false
			}
			lc, lp := strings.ToLower(code), strings.ToLower(p.ProjectID)
			return strings.Contains(lp, lc) || strings.Contains(lc, lp)
		},
	}
	for _, match := range tiers {
		for i, p := range projects {
			if match(p) {
				return i, true
			}
		}
	}
	return -1, false
}

// ProjectSpendings derives spent, income and remaining budget for every
// project from the transactions assigned to it.
func ProjectSpendings(projects []domain.Project, txs []domain.Transaction) []domain.ProjectSpending {
	out := make([]domain.ProjectSpending, len(projects))
	for i, p := range projects {
		out[i] = domain.ProjectSpending{Project: p}
	}
	for _, t := range txs {
		i, ok := AssignProject(t, projects)
		if !ok {
			continue
		}
		out[i].Spent += t.Expense
		out[i].Income += t.Income
		out[i].Transactions++
	}
	for i := range out {
		out[i].Remaining = out[i].Budget - out[i].Spent
		if out[i].Budget > 0 {
			out[i].Utilization = out[i].Spent / out[i].Budget
		}
	}
	return out
}
