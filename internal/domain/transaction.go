package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// ============================================================
// Bank transactions
// ============================================================

// TxStatus is the lifecycle status of a bank transaction.
type TxStatus string

const (
	StatusCompleted TxStatus = "Completed"
	StatusPending   TxStatus = "Pending"
	StatusDraft     TxStatus = "Draft"
)

// Valid reports whether s is one of the known statuses.
func (s TxStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusDraft:
		return true
	}
	return false
}

// DateLayout is the canonical calendar date format stored on transactions.
const DateLayout = "2006-01-02"

// TxDate is a transaction date. Documents store an ISO string, but older
// records carry a {seconds, nanoseconds} timestamp object; both decode into
// the ISO form, taken from local calendar fields.
type TxDate string

type legacyTimestamp struct {
	Seconds     *int64 `json:"seconds"`
	Nanoseconds int64  `json:"nanoseconds"`
	// Some exports prefix the fields with an underscore.
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

// UnmarshalJSON accepts an ISO string, a legacy timestamp object or null.
func (d *TxDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if data[0] == '{' {
		var ts legacyTimestamp
		if err := json.Unmarshal(data, &ts); err != nil {
			return err
		}
		switch {
		case ts.Seconds != nil:
			*d = TxDate(time.Unix(*ts.Seconds, ts.Nanoseconds).Local().Format(DateLayout))
		case ts.USeconds != nil:
			*d = TxDate(time.Unix(*ts.USeconds, ts.UNanoseconds).Local().Format(DateLayout))
		default:
			*d = ""
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = TxDate(strings.TrimSpace(s))
	return nil
}

var isoLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Time parses the date as a local calendar day. Timestamps with a zone are
// converted to local time before the day is taken.
func (d TxDate) Time() (time.Time, bool) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			y, m, dd := t.In(time.Local).Date()
			return time.Date(y, m, dd, 0, 0, 0, 0, time.Local), true
		}
	}
	return time.Time{}, false
}

// Day returns the normalized YYYY-MM-DD form, or the raw string when the
// date cannot be parsed.
func (d TxDate) Day() string {
	if t, ok := d.Time(); ok {
		return t.Format(DateLayout)
	}
	return string(d)
}

// Transaction is a single bank ledger entry.
type Transaction struct {
	ID             string   `json:"id"`
	Date           TxDate   `json:"date"`
	Description    string   `json:"description"`
	Description2   string   `json:"description2,omitempty"`
	Expense        float64  `json:"expense"`
	Income         float64  `json:"income"`
	Status         TxStatus `json:"status"`
	Payer          string   `json:"payer,omitempty"`
	ProjectID      string   `json:"projectid,omitempty"`
	ProjectName    string   `json:"projectName,omitempty"`
	Category       string   `json:"category,omitempty"`
	BankAccountID  string   `json:"bankAccountId"`
	SequenceNumber *int     `json:"sequenceNumber,omitempty"`
}

// Net is income minus expense.
func (t Transaction) Net() float64 {
	return t.Income - t.Expense
}

// Amount is the unsigned size of the transaction, used by amount-range filters.
func (t Transaction) Amount() float64 {
	return t.Income + t.Expense
}

// TransactionRequest is the body of POST /v1/accounts/{accountId}/transactions.
type TransactionRequest struct {
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	Description2 string   `json:"description2,omitempty"`
	Expense      float64  `json:"expense"`
	Income       float64  `json:"income"`
	Status       TxStatus `json:"status,omitempty"`
	Payer        string   `json:"payer,omitempty"`
	ProjectID    string   `json:"projectid,omitempty"`
	ProjectName  string   `json:"projectName,omitempty"`
	Category     string   `json:"category,omitempty"`
}

// TransactionPatch is a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Date           *string   `json:"date,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Description2   *string   `json:"description2,omitempty"`
	Expense        *float64  `json:"expense,omitempty"`
	Income         *float64  `json:"income,omitempty"`
	Status         *TxStatus `json:"status,omitempty"`
	Payer          *string   `json:"payer,omitempty"`
	ProjectID      *string   `json:"projectid,omitempty"`
	ProjectName    *string   `json:"projectName,omitempty"`
	Category       *string   `json:"category,omitempty"`
	BankAccountID  *string   `json:"bankAccountId,omitempty"`
	SequenceNumber *int      `json:"sequenceNumber,omitempty"`
}

// Validate checks the fields present in the patch.
func (p *TransactionPatch) Validate() error {
	if p.Date != nil {
		if _, ok := TxDate(*p.Date).Time(); !ok {
			return &ErrValidation{Field: "date", Message: "invalid date"}
		}
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return &ErrValidation{Field: "description", Message: "required"}
	}
	if p.Expense != nil && *p.Expense < 0 {
		return &ErrValidation{Field: "expense", Message: "must not be negative"}
	}
	if p.Income != nil && *p.Income < 0 {
		return &ErrValidation{Field: "income", Message: "must not be negative"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ErrValidation{Field: "status", Message: "must be Completed, Pending or Draft"}
	}
	return nil
}

// Fields returns the document fields touched by the patch.
func (p *TransactionPatch) Fields() map[string]any {
	f := make(map[string]any)
	if p.Date != nil {
		f["date"] = TxDate(*p.Date).Day()
	}
	if p.Description != nil {
		f["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Description2 != nil {
		f["description2"] = *p.Description2
	}
	if p.Expense != nil {
		f["expense"] = *p.Expense
	}
	if p.Income != nil {
		f["income"] = *p.Income
	}
	if p.Status != nil {
		f["status"] = string(*p.Status)
	}
	if p.Payer != nil {
		f["payer"] = *p.Payer
	}
	if p.ProjectID != nil {
		f["projectid"] = *p.ProjectID
	}
	if p.ProjectName != nil {
		f["projectName"] = *p.ProjectName
	}
	if p.Category != nil {
		f["category"] = *p.Category
	}
	if p.BankAccountID != nil {
		f["bankAccountId"] = *p.BankAccountID
	}
	if p.SequenceNumber != nil {
		f["sequenceNumber"] = *p.SequenceNumber
	}
	return f
}
