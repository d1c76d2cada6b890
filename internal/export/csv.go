// Package export writes ledger and project tables as spreadsheet-friendly CSV.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
)

// TransactionHeader is the column row of a bank transaction export.
var TransactionHeader = []string{"日期", "描述", "描述2", "支出", "收入", "累计余额", "状态", "付款人", "项目", "分类"}

// ProjectHeader is the column row of a project export.
var ProjectHeader = []string{"项目编号", "项目名称", "类别", "预算", "已用", "剩余", "状态", "活动日期"}

// ContentType is sent with every export download.
const ContentType = "text/csv; charset=utf-8"

// TransactionsFilename names the export of one account taken on day.
func TransactionsFilename(accountID string, day time.Time) string {
	return fmt.Sprintf("transactions_%s_%s.csv", accountID, day.Format(domain.DateLayout))
}

// ProjectsFilename names a project export taken on day.
func ProjectsFilename(day time.Time) string {
	return fmt.Sprintf("projects_%s.csv", day.Format(domain.DateLayout))
}

// WriteTransactions writes rows in the order given. The balance column is
// the row's recomputed running balance.
func WriteTransactions(w io.Writer, rows []ledger.BalanceRow) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, TransactionHeader)
	for _, r := range rows {
		project := r.ProjectName
		if project == "" {
			project = r.ProjectID
		}
		writeRow(bw, []string{
			r.Date.Day(),
			r.Description,
			r.Description2,
			Money(r.Expense),
			Money(r.Income),
			Money(r.RunningBalance),
			string(r.Status),
			r.Payer,
			project,
			r.Category,
		})
	}
	return bw.Flush()
}

// WriteProjects writes one line per project with its derived spending.
func WriteProjects(w io.Writer, projects []domain.ProjectSpending) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, ProjectHeader)
	for _, p := range projects {
		writeRow(bw, []string{
			p.ProjectID,
			p.Name,
			string(p.BODCategory),
			Money(p.Budget),
			Money(p.Spent),
			Money(p.Remaining),
			string(p.Status),
			p.EventDate.Day(),
		})
	}
	return bw.Flush()
}

// Money formats an amount with exactly two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// writeRow quotes every cell and doubles inner quotes.
func writeRow(w *bufio.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(c, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}
