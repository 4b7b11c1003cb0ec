package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MaxCategoryName   = 100
	MaxDescription    = 200
	MinGoalYear       = 1970
	MaxGoalYear       = 9999
	MaxUsernameLength = 64
	MinUsernameLength = 3
	MinPasswordLength = 4
)

type (
	// Date is a calendar day, always held as midnight UTC.
	Date struct {
		time.Time
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Category struct {
		ID     int64
		Name   string
		UserID int64
	}

	Expense struct {
		ID          int64
		Amount      decimal.Decimal
		Description string
		Date        Date
		StartTime   *time.Time // optional time of day the expense started
		EndTime     *time.Time
		PhotoPath   string // filesystem path, never image bytes
		CategoryID  int64
		UserID      int64
	}

	// BudgetGoal is the spend window for one (user, month, year).
	BudgetGoal struct {
		ID      int64
		Minimum decimal.Decimal
		Maximum decimal.Decimal
		Month   int
		Year    int
		UserID  int64
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// DateFromMillis converts a stored epoch-millisecond timestamp back to a Date.
func DateFromMillis(ms int64) Date {
	return DateOf(time.UnixMilli(ms).UTC())
}

// Millis returns the epoch-millisecond timestamp used by the store.
func (d Date) Millis() int64 {
	return d.UnixMilli()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return NewValidationError("date", "date cannot be zero")
	}
	return nil
}

func (c Category) Validate() error {
	var errs ValidationErrors
	name := strings.TrimSpace(c.Name)
	if name == "" {
		errs.Add(NewValidationError("name", "category name cannot be empty"))
	} else if utf8.RuneCountInString(name) > MaxCategoryName {
		errs.Add(NewValidationError("name", "category name too long (max 100 characters)"))
	}
	if c.UserID <= 0 {
		errs.Add(NewValidationError("user_id", "category must belong to a user"))
	}
	return errs.Err()
}

func (e Expense) Validate() error {
	var errs ValidationErrors
	if err := e.Date.Validate(); err != nil {
		errs.Add(err)
	}
	if strings.TrimSpace(e.Description) == "" {
		errs.Add(NewValidationError("description", "description cannot be empty"))
	} else if utf8.RuneCountInString(e.Description) > MaxDescription {
		errs.Add(NewValidationError("description", "description too long (max 200 characters)"))
	}
	// Amounts are stored in cents; whatever rounds to zero is zero.
	if e.Amount.Round(2).IsZero() {
		errs.Add(NewValidationError("amount", "amount cannot be zero"))
	} else if err := CheckCents("amount", e.Amount); err != nil {
		errs.Add(err)
	}
	if e.StartTime != nil && e.EndTime != nil && e.EndTime.Before(*e.StartTime) {
		errs.Add(NewValidationError("end_time", "end time must not be before start time"))
	}
	if e.CategoryID <= 0 {
		errs.Add(NewValidationError("category_id", "expense must reference a category"))
	}
	if e.UserID <= 0 {
		errs.Add(NewValidationError("user_id", "expense must belong to a user"))
	}
	return errs.Err()
}

func (g BudgetGoal) Validate() error {
	var errs ValidationErrors
	if g.Month < 1 || g.Month > 12 {
		errs.Add(NewValidationError("month", "month must be between 1 and 12"))
	}
	if g.Year < MinGoalYear || g.Year > MaxGoalYear {
		errs.Add(NewValidationError("year", "year out of range"))
	}
	if g.Minimum.IsNegative() {
		errs.Add(NewValidationError("minimum", "minimum goal cannot be negative"))
	} else if err := CheckCents("minimum", g.Minimum); err != nil {
		errs.Add(err)
	}
	if err := CheckCents("maximum", g.Maximum); err != nil {
		errs.Add(err)
	}
	if g.Maximum.LessThan(g.Minimum) {
		errs.Add(NewValidationError("maximum", "maximum goal must not be below minimum"))
	}
	if g.UserID <= 0 {
		errs.Add(NewValidationError("user_id", "goal must belong to a user"))
	}
	return errs.Err()
}
