package importer

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errNegativeAmount = errors.New("must not be negative")

// currency markers stripped from amount cells, longest first
var currencyMarkers = []string{"USD", "MYR", "CNY", "RMB", "HKD", "SGD", "EUR", "RM", "HK$", "S$", "$", "¥", "￥", "€", "£"}

// ParseAmount reads an optional non-negative money cell. The boolean is false
// for an empty cell. Thousands separators and currency markers are tolerated.
func ParseAmount(s string) (decimal.Decimal, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, false, nil
	}

	clean := strings.ToUpper(s)
	for _, m := range currencyMarkers {
		clean = strings.ReplaceAll(clean, m, "")
	}
	clean = strings.NewReplacer(",", "", " ", "", "_", "", " ", "").Replace(clean)
	if clean == "" {
		return decimal.Zero, false, nil
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, true, err
	}
	if d.IsNegative() {
		return decimal.Zero, true, errNegativeAmount
	}
	return d, true, nil
}
