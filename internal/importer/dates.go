package importer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

var (
	errEmptyDate   = errors.New("date is required")
	errInvalidDate = errors.New("invalid date")
)

var (
	reYearFirst  = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})(?:[T ]\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:Z|[+-]\d{2}:?\d{2})?)?$`)
	reYearLast   = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
	reDayMonName = regexp.MustCompile(`^(\d{1,2})[ -]([A-Za-z]{3,9})\.?,?[ -](\d{4})$`)
	reMonNameDay = regexp.MustCompile(`^([A-Za-z]{3,9})\.? (\d{1,2}),? (\d{4})$`)
	reChinese    = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日?$`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDate normalizes a pasted date cell to YYYY-MM-DD. Accepted forms:
//
//	2024-01-15, 2024-01-15T10:00:00Z, 2024/01/15
//	15/01/2024 (day first), 01/31/2024 (month first when the day cannot be a month)
//	15 Jan 2024, Jan 15, 2024, 2024年1月15日
//
// The result is built from local calendar fields.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errEmptyDate
	}
	if t, ok := domain.TxDate(s).Time(); ok {
		return t.Format(domain.DateLayout), nil
	}

	if m := reYearFirst.FindStringSubmatch(s); m != nil {
		return calendarDay(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reChinese.FindStringSubmatch(s); m != nil {
		return calendarDay(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reYearLast.FindStringSubmatch(s); m != nil {
		a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if a <= 12 && b > 12 {
			return calendarDay(y, a, b)
		}
		return calendarDay(y, b, a)
	}
	if m := reDayMonName.FindStringSubmatch(s); m != nil {
		mon, ok := monthByName(m[2])
		if !ok {
			return "", errInvalidDate
		}
		return calendarDay(atoi(m[3]), int(mon), atoi(m[1]))
	}
	if m := reMonNameDay.FindStringSubmatch(s); m != nil {
		mon, ok := monthByName(m[1])
		if !ok {
			return "", errInvalidDate
		}
		return calendarDay(atoi(m[3]), int(mon), atoi(m[2]))
	}
	return "", errInvalidDate
}

// calendarDay rejects dates that time.Date would silently roll over, such
// as 31 February.
func calendarDay(y, m, d int) (string, error) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", errInvalidDate
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", errInvalidDate
	}
	return t.Format(domain.DateLayout), nil
}

func monthByName(s string) (time.Month, bool) {
	if len(s) < 3 {
		return 0, false
	}
	m, ok := monthNames[strings.ToLower(s[:3])]
	return m, ok
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
