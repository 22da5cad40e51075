package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/common"
)

// NormalizeDate converts a calendar date to its canonical YYYY-MM-DD form.
// Plain dates and RFC 3339 timestamps are accepted; a timestamp keeps the
// calendar day of its own offset.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(common.DateLayout, s); err == nil {
		return t.Format(common.DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(common.DateLayout), nil
	}

	return "", fmt.Errorf("%w: %q", common.ErrInvalidDate, s)
}

// FormatDate renders t as an entry date in t's location.
func FormatDate(t time.Time) string {
	return t.Format(common.DateLayout)
}

// MonthDates returns every date of the given month in canonical form.
func MonthDates(year int, month time.Month) []string {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	dates := make([]string, 0, days)
	for d := 0; d < days; d++ {
		dates = append(dates, FormatDate(first.AddDate(0, 0, d)))
	}
	return dates
}
