package importer

import "strings"

type field int

const (
	fieldDate field = iota
	fieldDescription
	fieldDescription2
	fieldExpense
	fieldIncome
	fieldBalance
	fieldStatus
	fieldPayer
	fieldProject
	fieldCategory
)

// headerNames covers the English field names and the column titles written
// by the CSV export.
var headerNames = map[string]field{
	"date":           fieldDate,
	"日期":             fieldDate,
	"description":    fieldDescription,
	"描述":             fieldDescription,
	"description2":   fieldDescription2,
	"描述2":            fieldDescription2,
	"expense":        fieldExpense,
	"支出":             fieldExpense,
	"income":         fieldIncome,
	"收入":             fieldIncome,
	"balance":        fieldBalance,
	"runningbalance": fieldBalance,
	"累计余额":           fieldBalance,
	"status":         fieldStatus,
	"状态":             fieldStatus,
	"payer":          fieldPayer,
	"付款人":            fieldPayer,
	"project":        fieldProject,
	"projectid":      fieldProject,
	"项目":             fieldProject,
	"category":       fieldCategory,
	"分类":             fieldCategory,
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// headerColumns maps known header names to column positions. It reports
// false unless both date and description columns are present.
func headerColumns(cells []string) (map[field]int, bool) {
	cols := make(map[field]int)
	for i, c := range cells {
		f, ok := headerNames[normalizeHeader(c)]
		if !ok {
			continue
		}
		if _, dup := cols[f]; !dup {
			cols[f] = i
		}
	}
	_, hasDate := cols[fieldDate]
	_, hasDesc := cols[fieldDescription]
	return cols, hasDate && hasDesc
}

// byHeader picks cells by named column. The balance column is recognized so
// it is never mistaken for data, and then dropped: balances are recomputed.
func byHeader(c []string, cols map[field]int) rawRecord {
	at := func(f field) string {
		i, ok := cols[f]
		if !ok || i >= len(c) {
			return ""
		}
		return c[i]
	}
	return rawRecord{
		date:         at(fieldDate),
		description:  at(fieldDescription),
		description2: at(fieldDescription2),
		expense:      at(fieldExpense),
		income:       at(fieldIncome),
		status:       at(fieldStatus),
		payer:        at(fieldPayer),
		projectID:    at(fieldProject),
		category:     at(fieldCategory),
	}
}
