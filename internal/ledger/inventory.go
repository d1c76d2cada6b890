package ledger

import (
	"slices"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

// StockCard orders movements by date and carries the running stock level,
// the inventory twin of ComputeRunningBalances.
func StockCard(movements []domain.MerchandiseTransaction) []domain.StockCardMovement {
	sorted := sortMovements(movements)
	card := make([]domain.StockCardMovement, len(sorted))
	stock := 0
	for i, m := range sorted {
		row := domain.StockCardMovement{MerchandiseTransaction: m}
		switch m.Type {
		case domain.MovementBuy:
			row.In = m.Quantity
			stock += m.Quantity
		case domain.MovementSell:
			row.Out = m.Quantity
			stock -= m.Quantity
		}
		row.Balance = stock
		card[i] = row
	}
	return card
}

// StockOf totals an item's movements: stock = Σbuy − Σsell.
func StockOf(item domain.Merchandise, movements []domain.MerchandiseTransaction) domain.MerchandiseStock {
	st := domain.MerchandiseStock{Merchandise: item}
	for _, m := range movements {
		if m.MerchandiseID != item.ID {
			continue
		}
		switch m.Type {
		case domain.MovementBuy:
			st.Bought += m.Quantity
			st.Cost += float64(m.Quantity) * m.UnitPrice
		case domain.MovementSell:
			st.Sold += m.Quantity
			st.Revenue += float64(m.Quantity) * m.UnitPrice
		}
	}
	st.Stock = st.Bought - st.Sold
	return st
}

func sortMovements(movements []domain.MerchandiseTransaction) []domain.MerchandiseTransaction {
	out := slices.Clone(movements)
	slices.SortStableFunc(out, func(a, b domain.MerchandiseTransaction) int {
		return compareKeys(ledgerKey{}.withDate(a.Date), ledgerKey{}.withDate(b.Date))
	})
	return out
}
