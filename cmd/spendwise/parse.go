package main

import (
	"fmt"
	"strconv"
	"time"

	"spendwise/internal/core"
)

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewValidationError(what, fmt.Sprintf("invalid %s %q", what, s))
	}
	return id, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, core.NewValidationError("date", fmt.Sprintf("invalid date %q: want YYYY-MM-DD", s))
	}
	return core.DateOf(t), nil
}

// parseMonth reads YYYY-MM.
func parseMonth(s string) (year, month int, err error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, core.NewValidationError("month", fmt.Sprintf("invalid month %q: want YYYY-MM", s))
	}
	return t.Year(), int(t.Month()), nil
}

// parseClock places an HH:MM time of day on d.
func parseClock(field string, d core.Date, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return nil, core.NewValidationError(field, fmt.Sprintf("invalid %s %q: want HH:MM", field, s))
	}
	at := d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
	return &at, nil
}

func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}
