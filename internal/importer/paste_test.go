package importer_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/importer"
)

func TestParse_EightFields(t *testing.T) {
	raw := "2024-01-15,Office Supplies,Stationery,245.00,0.00,Pending,ProjA,Supplies"

	recs := importer.Parse(raw, importer.Options{Delimiter: ','}, nil)

	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if !r.IsValid {
		t.Fatalf("expected valid record, got errors %v", r.Errors)
	}
	if r.Date != "2024-01-15" || r.Description != "Office Supplies" || r.Description2 != "Stationery" {
		t.Errorf("unexpected text fields: %+v", r)
	}
	if r.Expense != 245 || r.Income != 0 {
		t.Errorf("unexpected amounts: %v/%v", r.Expense, r.Income)
	}
	if r.Status != domain.StatusPending || r.ProjectID != "ProjA" || r.Category != "Supplies" {
		t.Errorf("unexpected status/project/category: %+v", r)
	}
	if r.IsUpdate {
		t.Error("expected IsUpdate=false without UpdateExisting")
	}
}

func TestParse_SevenFields(t *testing.T) {
	recs := importer.Parse("2024-02-01\tDues\t0\t150\tCompleted\tP1\tFees", importer.Options{Delimiter: '\t'}, nil)

	r := recs[0]
	if !r.IsValid {
		t.Fatalf("unexpected errors %v", r.Errors)
	}
	if r.Description2 != "" || r.Income != 150 || r.ProjectID != "P1" || r.Category != "Fees" {
		t.Errorf("unexpected mapping: %+v", r)
	}
}

func TestParse_FiveFieldsDefaults(t *testing.T) {
	r := importer.Parse("2024-02-01,Coffee,team,12.5,", importer.Options{}, nil)[0]

	if !r.IsValid {
		t.Fatalf("unexpected errors %v", r.Errors)
	}
	if r.Description2 != "team" || r.Expense != 12.5 || r.Income != 0 {
		t.Errorf("unexpected mapping: %+v", r)
	}
	if r.Status != domain.StatusCompleted {
		t.Errorf("expected default status Completed, got %s", r.Status)
	}
}

func TestParse_ThreeFieldsBestEffort(t *testing.T) {
	r := importer.Parse("2024-02-01,Coffee,4.20", importer.Options{}, nil)[0]
	if !r.IsValid || r.Expense != 4.2 {
		t.Errorf("expected expense 4.20 from third cell, got %+v", r)
	}
}

func TestParse_InsufficientFields(t *testing.T) {
	r := importer.Parse("2024-02-01,Coffee", importer.Options{}, nil)[0]

	if r.IsValid {
		t.Fatal("expected invalid record")
	}
	if r.Errors[0] != "insufficient fields" {
		t.Errorf("expected insufficient fields first, got %v", r.Errors)
	}
	if r.Date != "2024-02-01" || r.Description != "Coffee" {
		t.Errorf("expected positional fill, got %+v", r)
	}
}

func TestParse_AccumulatesErrors(t *testing.T) {
	r := importer.Parse("not-a-date,,abc,-5,Maybe,P,C", importer.Options{}, nil)[0]

	if r.IsValid {
		t.Fatal("expected invalid record")
	}
	if len(r.Errors) != 5 {
		t.Errorf("expected 5 errors (date, description, expense, income, status), got %v", r.Errors)
	}
}

func TestParse_UnparseableDateIsInvalid(t *testing.T) {
	for _, d := range []string{"yesterday", "2024-13-01", "31/02/2024", "2024/02/30"} {
		r := importer.Parse(d+",Lunch,10,0", importer.Options{}, nil)[0]
		if r.IsValid {
			t.Errorf("date %q: expected invalid record", d)
		}
	}
}

func TestParse_LinesAndHeader(t *testing.T) {
	raw := "date,description,expense,income\r\n\r\n2024-01-01,A,1,0\r\n   \n2024-01-02,B,2,0\n"

	recs := importer.Parse(raw, importer.Options{SkipHeader: true}, nil)

	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Line != 3 || recs[1].Line != 5 {
		t.Errorf("expected source lines 3 and 5, got %d and %d", recs[0].Line, recs[1].Line)
	}
	if recs[0].Description != "A" || recs[1].Description != "B" {
		t.Error("expected input order to be preserved")
	}
}

func TestParse_QuotedCells(t *testing.T) {
	raw := `"2024-03-01","Dinner, speakers",'venue',"1,250.00",0,'已完成',P2,Events`

	r := importer.Parse(raw, importer.Options{}, nil)[0]

	if !r.IsValid {
		t.Fatalf("unexpected errors %v", r.Errors)
	}
	if r.Description != "Dinner, speakers" || r.Description2 != "venue" {
		t.Errorf("unexpected descriptions: %q / %q", r.Description, r.Description2)
	}
	if r.Expense != 1250 {
		t.Errorf("expected 1250, got %v", r.Expense)
	}
	if r.Status != domain.StatusCompleted {
		t.Errorf("expected Completed, got %s", r.Status)
	}
}

func TestParse_QuotedCellSpansLines(t *testing.T) {
	raw := "2024-03-01,\"Line one\nline two\",3,0\n2024-03-02,\"'Petty cash'\",4,0\n2024-03-03,'Float',5,0"

	recs := importer.Parse(raw, importer.Options{}, nil)

	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].Description != "Line one\nline two" || recs[0].Expense != 3 || !recs[0].IsValid {
		t.Errorf("unexpected multi-line record: %+v", recs[0])
	}
	if recs[1].Line != 3 || recs[2].Line != 4 {
		t.Errorf("expected source lines 3 and 4, got %d and %d", recs[1].Line, recs[2].Line)
	}
	if recs[1].Description != "'Petty cash'" {
		t.Errorf("double-quoted cell must keep its content, got %q", recs[1].Description)
	}
	if recs[2].Description != "Float" {
		t.Errorf("bare single quotes are stripped, got %q", recs[2].Description)
	}
}

func TestParse_UnterminatedQuoteFallsBackPerLine(t *testing.T) {
	raw := "2024-01-01,\"Open quote,5,0\n2024-01-02,B,2,0"

	recs := importer.Parse(raw, importer.Options{}, nil)

	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].IsValid {
		t.Errorf("expected the broken line to be invalid: %+v", recs[0])
	}
	if !recs[1].IsValid || recs[1].Description != "B" || recs[1].Line != 2 {
		t.Errorf("expected the next line to parse on its own: %+v", recs[1])
	}
}

func TestParse_TabKeepsEmptyCells(t *testing.T) {
	r := importer.Parse("2024-03-01\tFee\t\t3\t", importer.Options{Delimiter: '\t'}, nil)[0]
	if !r.IsValid || r.Description2 != "" || r.Expense != 3 {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestParse_UpdateDetection(t *testing.T) {
	existing := []domain.Transaction{
		{ID: "x1", Date: "2024-01-15", Description: "Office Supplies", Expense: 200},
		{ID: "x2", Date: "2024-01-16", Description: "Other"},
	}
	raw := "2024-01-15,Office Supplies,,245.00,0\n2024-01-15,office supplies,,245.00,0"

	recs := importer.Parse(raw, importer.Options{UpdateExisting: true}, existing)
	if !recs[0].IsUpdate || recs[0].ExistingID != "x1" {
		t.Errorf("expected update of x1, got %+v", recs[0])
	}
	if recs[1].IsUpdate {
		t.Error("expected exact description match only")
	}

	strict := importer.Parse(raw, importer.Options{UpdateExisting: true, StrictMatch: true}, existing)
	if strict[0].IsUpdate {
		t.Error("expected strict mode to reject differing expense")
	}

	off := importer.Parse(raw, importer.Options{}, existing)
	if off[0].IsUpdate {
		t.Error("expected no update detection when UpdateExisting is off")
	}
}

func TestParse_HeaderSchema(t *testing.T) {
	raw := strings.Join([]string{
		`"日期","描述","描述2","支出","收入","累计余额","状态","付款人","项目","分类"`,
		`"2024-01-05","Venue","","120.00","0.00","-20.00","Completed","Ali","P1","Events"`,
	}, "\n")

	recs := importer.Parse(raw, importer.Options{HeaderSchema: true}, nil)

	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if !r.IsValid {
		t.Fatalf("unexpected errors %v", r.Errors)
	}
	if r.Expense != 120 || r.Income != 0 || r.Payer != "Ali" || r.ProjectID != "P1" {
		t.Errorf("unexpected mapping: %+v", r)
	}
}

func TestParse_Idempotent(t *testing.T) {
	raw := "15/01/2024,Office Supplies,Stationery,\"1,245.00\",0,pending,ProjA,Supplies\n2 Feb 2024,Dues,,0,$80,草稿,,"

	first := importer.Parse(raw, importer.Options{}, nil)

	var b strings.Builder
	for _, r := range first {
		fmt.Fprintf(&b, "%s,%s,%s,%.2f,%.2f,%s,%s,%s\n",
			r.Date, r.Description, r.Description2, r.Expense, r.Income, r.Status, r.ProjectID, r.Category)
	}
	second := importer.Parse(b.String(), importer.Options{}, nil)

	if len(first) != len(second) {
		t.Fatalf("record count changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, c := first[i], second[i]
		a.Line, c.Line = 0, 0
		if !reflect.DeepEqual(a, c) {
			t.Errorf("record %d changed on reparse:\n%+v\n%+v", i, a, c)
		}
	}
}

func TestOptionsFromRequest(t *testing.T) {
	opts := importer.OptionsFromRequest(domain.ImportRequest{Delimiter: "tab", SkipHeaderRow: true})
	if opts.Delimiter != '\t' || !opts.SkipHeader {
		t.Errorf("unexpected options %+v", opts)
	}
	if importer.OptionsFromRequest(domain.ImportRequest{}).Delimiter != ',' {
		t.Error("expected comma by default")
	}
}
