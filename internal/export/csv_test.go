package export_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/export"
	"github.com/boddenberg/org-finance-bfa-go/internal/importer"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
)

func sample() []domain.Transaction {
	return []domain.Transaction{
		{ID: "a", Date: "2024-01-05", Description: `Venue "Hall A", deposit`, Expense: 120, Status: domain.StatusCompleted, Category: "Events"},
		{ID: "b", Date: "2024-01-06", Description: "Sponsorship", Description2: "Gold", Income: 500.5, Status: domain.StatusPending, Payer: "ACME", ProjectID: "2024_Business_Expo"},
		{ID: "c", Date: "2024-02-01", Description: "Bank charges", Expense: 0.1, Status: domain.StatusDraft},
	}
}

func TestWriteTransactions(t *testing.T) {
	var buf bytes.Buffer
	rows := ledger.LedgerRows(sample(), 100)

	if err := export.WriteTransactions(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 lines, got %d", len(lines))
	}
	if lines[0] != `"日期","描述","描述2","支出","收入","累计余额","状态","付款人","项目","分类"` {
		t.Errorf("unexpected header: %s", lines[0])
	}
	want := `"2024-01-05","Venue ""Hall A"", deposit","","120.00","0.00","-20.00","Completed","","","Events"`
	if lines[1] != want {
		t.Errorf("unexpected first row:\n got %s\nwant %s", lines[1], want)
	}
	if !strings.Contains(lines[2], `"480.50"`) || !strings.Contains(lines[2], `"2024_Business_Expo"`) {
		t.Errorf("unexpected second row: %s", lines[2])
	}
}

func TestWriteTransactions_ReimportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	orig := sample()
	if err := export.WriteTransactions(&buf, ledger.LedgerRows(orig, 0)); err != nil {
		t.Fatal(err)
	}

	recs := importer.Parse(buf.String(), importer.Options{HeaderSchema: true}, nil)

	if len(recs) != len(orig) {
		t.Fatalf("expected %d records, got %d", len(orig), len(recs))
	}
	for i, r := range recs {
		o := orig[i]
		if !r.IsValid {
			t.Errorf("record %d invalid: %v", i, r.Errors)
		}
		if r.Date != string(o.Date) || r.Description != o.Description {
			t.Errorf("record %d: got %s/%q, want %s/%q", i, r.Date, r.Description, o.Date, o.Description)
		}
		if r.Expense != o.Expense || r.Income != o.Income {
			t.Errorf("record %d: got %v/%v, want %v/%v", i, r.Expense, r.Income, o.Expense, o.Income)
		}
	}
}

func TestWriteTransactions_ReimportKeepsMultiLineAndQuotedText(t *testing.T) {
	orig := []domain.Transaction{
		{ID: "a", Date: "2024-04-01", Description: "Line one\nline two", Expense: 3, Status: domain.StatusCompleted},
		{ID: "b", Date: "2024-04-02", Description: "'Petty cash'", Description2: "drawer\r\nB", Income: 40, Status: domain.StatusCompleted},
		{ID: "c", Date: "2024-04-03", Description: "Plain", Expense: 1, Status: domain.StatusCompleted},
	}
	var buf bytes.Buffer
	if err := export.WriteTransactions(&buf, ledger.LedgerRows(orig, 0)); err != nil {
		t.Fatal(err)
	}

	recs := importer.Parse(buf.String(), importer.Options{HeaderSchema: true}, nil)

	if len(recs) != len(orig) {
		t.Fatalf("expected %d records, got %d", len(orig), len(recs))
	}
	for i, r := range recs {
		o := orig[i]
		if !r.IsValid {
			t.Errorf("record %d invalid: %v", i, r.Errors)
		}
		if r.Description != o.Description || r.Expense != o.Expense || r.Income != o.Income {
			t.Errorf("record %d: got %q %v/%v, want %q %v/%v", i, r.Description, r.Expense, r.Income, o.Description, o.Expense, o.Income)
		}
	}
	if recs[1].Description2 != "drawer\nB" {
		t.Errorf("expected line endings normalized in description2, got %q", recs[1].Description2)
	}
}

func TestWriteProjects(t *testing.T) {
	var buf bytes.Buffer
	err := export.WriteProjects(&buf, []domain.ProjectSpending{{
		Project: domain.Project{ProjectID: "2024_Community_Drive", Name: "Drive", BODCategory: domain.BODCommunity,
			Budget: 1000, Status: domain.ProjectActive, EventDate: "2024-05-01"},
		Spent:     250,
		Remaining: 750,
	}})
	if err != nil {
		t.Fatal(err)
	}

	want := `"项目编号","项目名称","类别","预算","已用","剩余","状态","活动日期"` + "\n" +
		`"2024_Community_Drive","Drive","Community","1000.00","250.00","750.00","Active","2024-05-01"` + "\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestFilenames(t *testing.T) {
	day := time.Date(2024, 3, 9, 15, 0, 0, 0, time.Local)
	if got := export.TransactionsFilename("acc1", day); got != "transactions_acc1_2024-03-09.csv" {
		t.Errorf("unexpected filename %s", got)
	}
	if got := export.ProjectsFilename(day); got != "projects_2024-03-09.csv" {
		t.Errorf("unexpected filename %s", got)
	}
}
