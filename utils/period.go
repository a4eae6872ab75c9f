// Package utils provides utility functions for the application.
package utils

import (
	"fmt"
	"time"
)

// PeriodLayout is the billing period format (calendar month)
const PeriodLayout = "2006-01"

// ParsePeriod validates a YYYY-MM billing period string
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.ParseInLocation(PeriodLayout, period, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period %q: expected YYYY-MM: %w", period, err)
	}
	return t, nil
}

// PeriodBounds returns the half-open UTC interval [start, end) covering the
// billing period's first through last calendar day.
func PeriodBounds(period string) (time.Time, time.Time, error) {
	start, err := ParsePeriod(period)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start.AddDate(0, 1, 0)
	return start, end, nil
}

// CurrentPeriod returns the YYYY-MM period containing the given time
func CurrentPeriod(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}
