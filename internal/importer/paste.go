// Package importer turns pasted spreadsheet text into candidate ledger
// transactions. Parsing is pure: nothing is persisted here.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

// Options control how pasted text is split and matched.
type Options struct {
	Delimiter      rune // ',' or '\t'; zero means ','
	SkipHeader     bool
	UpdateExisting bool
	// StrictMatch also requires expense and income to match an existing record.
	StrictMatch bool
	// HeaderSchema reads the first line as column names instead of mapping
	// columns by count. A header without date and description columns is
	// dropped and the remaining lines fall back to count mapping.
	HeaderSchema bool
}

// OptionsFromRequest converts an API import request.
func OptionsFromRequest(req domain.ImportRequest) Options {
	opts := Options{
		Delimiter:      ',',
		SkipHeader:     req.SkipHeaderRow,
		UpdateExisting: req.UpdateExisting,
		StrictMatch:    req.StrictMatch,
		HeaderSchema:   req.HeaderSchema,
	}
	switch strings.ToLower(req.Delimiter) {
	case "\t", "tab", `\t`:
		opts.Delimiter = '\t'
	}
	return opts
}

// ParsedRecord is one candidate transaction with its validation outcome.
type ParsedRecord struct {
	Line         int             `json:"line"`
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	Description2 string          `json:"description2,omitempty"`
	Expense      float64         `json:"expense"`
	Income       float64         `json:"income"`
	Status       domain.TxStatus `json:"status"`
	Payer        string          `json:"payer,omitempty"`
	ProjectID    string          `json:"projectid,omitempty"`
	Category     string          `json:"category,omitempty"`
	IsValid      bool            `json:"isValid"`
	Errors       []string        `json:"errors"`
	IsUpdate     bool            `json:"isUpdate"`
	ExistingID   string          `json:"existingId,omitempty"`
}

// Transaction builds the ledger entry a valid record would create.
func (r ParsedRecord) Transaction(accountID string) domain.Transaction {
	return domain.Transaction{
		ID:            r.ExistingID,
		Date:          domain.TxDate(r.Date),
		Description:   r.Description,
		Description2:  r.Description2,
		Expense:       r.Expense,
		Income:        r.Income,
		Status:        r.Status,
		Payer:         r.Payer,
		ProjectID:     r.ProjectID,
		ProjectName:   r.ProjectID,
		Category:      r.Category,
		BankAccountID: accountID,
	}
}

// rawRecord holds the cells of one line after column mapping.
type rawRecord struct {
	date, description, description2 string
	expense, income, status         string
	payer, projectID, category      string
}

// Parse converts pasted text into records, one per non-blank row, in input
// order. A quoted cell may span lines. Every record carries its own validation errors; Parse never fails.
// existing is consulted only when opts.UpdateExisting is set.
func Parse(raw string, opts Options, existing []domain.Transaction) []ParsedRecord {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	lines := splitRecords(raw, opts.Delimiter)

	var columns map[field]int
	if opts.HeaderSchema && len(lines) > 0 {
		if cols, ok := headerColumns(lines[0].cells); ok {
			columns = cols
		}
		lines = lines[1:]
	} else if opts.SkipHeader && len(lines) > 0 {
		lines = lines[1:]
	}

	out := make([]ParsedRecord, 0, len(lines))
	for _, ln := range lines {
		cells := ln.cells

		var (
			rr   rawRecord
			errs []string
		)
		if columns != nil {
			rr = byHeader(cells, columns)
		} else {
			var short bool
			rr, short = byArity(cells)
			if short {
				errs = append(errs, "insufficient fields")
			}
		}

		rec := validate(rr, errs)
		rec.Line = ln.number
		if opts.UpdateExisting && rec.Date != "" && rec.Description != "" {
			if id, ok := findExisting(rec, existing, opts.StrictMatch); ok {
				rec.IsUpdate = true
				rec.ExistingID = id
			}
		}
		out = append(out, rec)
	}
	return out
}

type line struct {
	number int // first source line of the row
	cells  []string
}

// splitRecords decodes the whole text as delimited rows so quoted cells may
// hold newlines. Text the strict decoder rejects is split line by line.
func splitRecords(raw string, delim rune) []line {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	if rows, ok := decodeRows(raw, delim); ok {
		return rows
	}

	var out []line
	for i, text := range strings.Split(raw, "\n") {
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, line{number: i + 1, cells: splitCells(text, delim)})
	}
	return out
}

// decodeRows reads every row with a strict CSV reader. Cells that were
// double-quoted in the source keep their content; the others still get
// surrounding quotes stripped.
func decodeRows(raw string, delim rune) ([]line, bool) {
	r := newReader(raw, delim)
	source := strings.Split(raw, "\n")

	var out []line
	for {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, true
		}
		if err != nil {
			return nil, false
		}
		if len(cells) == 1 && strings.TrimSpace(cells[0]) == "" {
			continue
		}
		for i, c := range cells {
			if quotedAt(source, r, i) {
				cells[i] = strings.TrimSpace(c)
			} else {
				cells[i] = unquote(c)
			}
		}
		number, _ := r.FieldPos(0)
		out = append(out, line{number: number, cells: cells})
	}
}

func quotedAt(source []string, r *csv.Reader, field int) bool {
	ln, col := r.FieldPos(field)
	if ln < 1 || ln > len(source) || col < 1 || col > len(source[ln-1]) {
		return false
	}
	return source[ln-1][col-1] == '"'
}

func newReader(text string, delim rune) *csv.Reader {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	// leading-space trimming would swallow empty tab-separated cells
	r.TrimLeadingSpace = delim != '\t'
	return r
}

// splitCells splits one line on the delimiter, leniently. Quoted cells may
// contain the delimiter. Surrounding quotes of either kind are stripped.
func splitCells(text string, delim rune) []string {
	r := newReader(text, delim)
	r.LazyQuotes = true

	cells, err := r.Read()
	if err != nil {
		cells = strings.Split(text, string(delim))
	}
	for i, c := range cells {
		cells[i] = unquote(c)
	}
	return cells
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// byArity maps cells by how many there are. The boolean reports a line with
// fewer than three cells.
func byArity(c []string) (rawRecord, bool) {
	at := func(i int) string {
		if i < len(c) {
			return c[i]
		}
		return ""
	}

	switch n := len(c); {
	case n >= 8:
		return rawRecord{
			date: at(0), description: at(1), description2: at(2),
			expense: at(3), income: at(4), status: at(5),
			projectID: at(6), category: at(7),
		}, false
	case n == 7:
		return rawRecord{
			date: at(0), description: at(1),
			expense: at(2), income: at(3), status: at(4),
			projectID: at(5), category: at(6),
		}, false
	case n >= 5:
		return rawRecord{
			date: at(0), description: at(1), description2: at(2),
			expense: at(3), income: at(4),
		}, false
	default:
		return rawRecord{
			date: at(0), description: at(1),
			expense: at(2), income: at(3),
		}, n < 3
	}
}

func validate(rr rawRecord, errs []string) ParsedRecord {
	rec := ParsedRecord{
		Description:  strings.TrimSpace(rr.description),
		Description2: strings.TrimSpace(rr.description2),
		Payer:        strings.TrimSpace(rr.payer),
		ProjectID:    strings.TrimSpace(rr.projectID),
		Category:     strings.TrimSpace(rr.category),
	}

	if day, err := ParseDate(rr.date); err != nil {
		if errors.Is(err, errEmptyDate) {
			errs = append(errs, err.Error())
		} else {
			errs = append(errs, fmt.Sprintf("invalid date %q", rr.date))
		}
	} else {
		rec.Date = day
	}

	if rec.Description == "" {
		errs = append(errs, "description is required")
	}

	if v, err := amountField("expense", rr.expense); err != "" {
		errs = append(errs, err)
	} else {
		rec.Expense = v
	}
	if v, err := amountField("income", rr.income); err != "" {
		errs = append(errs, err)
	} else {
		rec.Income = v
	}

	if st, err := ParseStatus(rr.status); err != nil {
		errs = append(errs, err.Error())
	} else {
		rec.Status = st
	}

	rec.Errors = errs
	if rec.Errors == nil {
		rec.Errors = []string{}
	}
	rec.IsValid = len(errs) == 0
	return rec
}

func amountField(name, cell string) (float64, string) {
	d, present, err := ParseAmount(cell)
	switch {
	case errors.Is(err, errNegativeAmount):
		return 0, name + " must not be negative"
	case err != nil:
		return 0, fmt.Sprintf("invalid %s %q", name, cell)
	case !present:
		return 0, ""
	}
	return d.InexactFloat64(), ""
}

// findExisting looks for a stored transaction equal on date and
// description, and in strict mode on expense and income as well.
func findExisting(rec ParsedRecord, existing []domain.Transaction, strict bool) (string, bool) {
	for _, t := range existing {
		if t.Date.Day() != rec.Date || strings.TrimSpace(t.Description) != rec.Description {
			continue
		}
		if strict && (t.Expense != rec.Expense || t.Income != rec.Income) {
			continue
		}
		return t.ID, true
	}
	return "", false
}

// Valid returns the records that passed validation.
func Valid(records []ParsedRecord) []ParsedRecord {
	out := make([]ParsedRecord, 0, len(records))
	for _, r := range records {
		if r.IsValid {
			out = append(out, r)
		}
	}
	return out
}
