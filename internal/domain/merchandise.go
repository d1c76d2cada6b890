package domain

// ============================================================
// Merchandise / inventory
// ============================================================

// Merchandise is an inventory item sold by the organization.
type Merchandise struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SKU         string  `json:"sku,omitempty"`
	Category    string  `json:"category,omitempty"`
	UnitPrice   float64 `json:"unitPrice"`
	CostPrice   float64 `json:"costPrice"`
	Description string  `json:"description,omitempty"`
	IsActive    bool    `json:"isActive"`
}

// MovementType tells whether stock came in or went out.
type MovementType string

const (
	MovementBuy  MovementType = "buy"
	MovementSell MovementType = "sell"
)

// MerchandiseTransaction is a single buy or sell movement of an item.
type MerchandiseTransaction struct {
	ID            string       `json:"id"`
	MerchandiseID string       `json:"merchandiseId"`
	Type          MovementType `json:"type"`
	Quantity      int          `json:"quantity"`
	UnitPrice     float64      `json:"unitPrice"`
	Date          TxDate       `json:"date"`
	Note          string       `json:"note,omitempty"`
}

// MovementRequest is the body of POST /v1/merchandise/{id}/movements.
type MovementRequest struct {
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"`
	UnitPrice float64      `json:"unitPrice"`
	Date      string       `json:"date"`
	Note      string       `json:"note,omitempty"`
}

// StockCardMovement is one row of an item's stock card.
type StockCardMovement struct {
	MerchandiseTransaction
	In      int `json:"in"`
	Out     int `json:"out"`
	Balance int `json:"balance"`
}

// MerchandiseStock is an item with its stock derived from movements.
type MerchandiseStock struct {
	Merchandise
	Bought  int     `json:"bought"`
	Sold    int     `json:"sold"`
	Stock   int     `json:"stock"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
}
