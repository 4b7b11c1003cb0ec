package core

import (
	"fmt"
	"time"
)

// Period is an inclusive range of calendar days.
type Period struct {
	From Date
	To   Date
}

func NewPeriod(from, to Date) Period {
	return Period{From: from, To: to}
}

// MonthPeriod covers every day of the given month.
func MonthPeriod(year, month int) Period {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return Period{From: first, To: last}
}

// CurrentMonth is the MonthPeriod containing now.
func CurrentMonth(now time.Time) Period {
	return MonthPeriod(now.Year(), int(now.Month()))
}

func (p Period) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return NewValidationError("period", "period bounds cannot be zero")
	}
	if p.To.Before(p.From.Time) {
		return NewValidationError("period", "period end is before its start")
	}
	return nil
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.From.Time) && !d.After(p.To.Time)
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.From, p.To)
}
