package storage

// Row types mirror the tables one to one. Timestamps are epoch milliseconds
// and money is integer cents.

type User struct {
	UserID       int64
	Username     string
	PasswordHash string
	CreatedAt    int64
}

type Category struct {
	CategoryID int64
	Name       string
	UserID     int64
}

type Expense struct {
	ExpenseID   int64
	AmountCents int64
	Description string
	Date        int64
	StartTime   *int64
	EndTime     *int64
	PhotoPath   string
	CategoryID  int64
	UserID      int64
}

type BudgetGoal struct {
	GoalID       int64
	MinimumCents int64
	MaximumCents int64
	Month        int64
	Year         int64
	UserID       int64
}
