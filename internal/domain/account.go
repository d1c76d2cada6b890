package domain

import "time"

// ============================================================
// Bank accounts
// ============================================================

// BankAccount is one of the organization's bank accounts. Balance is the
// opening balance: the single seed of every running balance computed for the
// account's transactions.
type BankAccount struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Balance       float64   `json:"balance"`
	IsActive      bool      `json:"isActive"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	BankName      string    `json:"bankName,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// BankAccountRequest is the body of POST /v1/accounts.
type BankAccountRequest struct {
	Name          string  `json:"name"`
	Balance       float64 `json:"balance"`
	IsActive      *bool   `json:"isActive,omitempty"`
	AccountNumber string  `json:"accountNumber,omitempty"`
	BankName      string  `json:"bankName,omitempty"`
}

// BankAccountPatch is the body of PATCH /v1/accounts/{accountId}.
type BankAccountPatch struct {
	Name          *string  `json:"name,omitempty"`
	Balance       *float64 `json:"balance,omitempty"`
	IsActive      *bool    `json:"isActive,omitempty"`
	AccountNumber *string  `json:"accountNumber,omitempty"`
	BankName      *string  `json:"bankName,omitempty"`
}

// Fields returns the document fields touched by the patch.
func (p *BankAccountPatch) Fields() map[string]any {
	f := make(map[string]any)
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.Balance != nil {
		f["balance"] = *p.Balance
	}
	if p.IsActive != nil {
		f["isActive"] = *p.IsActive
	}
	if p.AccountNumber != nil {
		f["accountNumber"] = *p.AccountNumber
	}
	if p.BankName != nil {
		f["bankName"] = *p.BankName
	}
	return f
}

// AccountCard is the per-account dashboard card.
type AccountCard struct {
	Account        BankAccount `json:"account"`
	OpeningBalance float64     `json:"openingBalance"`
	CurrentBalance float64     `json:"currentBalance"`
	TotalIncome    float64     `json:"totalIncome"`
	TotalExpense   float64     `json:"totalExpense"`
	Transactions   int         `json:"transactions"`
}
