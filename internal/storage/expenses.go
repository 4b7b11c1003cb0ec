package storage

import (
	"context"
	"database/sql"
)

type InsertExpenseParams struct {
	AmountCents int64
	Description string
	Date        int64
	StartTime   *int64
	EndTime     *int64
	PhotoPath   string
	CategoryID  int64
	UserID      int64
}

func (q *Queries) InsertExpense(ctx context.Context, arg InsertExpenseParams) (int64, error) {
	return q.insert(ctx, "insert expense", `
INSERT INTO expenses (amount_cents, description, date, start_time, end_time, photo_path, category_id, user_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.AmountCents, arg.Description, arg.Date,
		nullInt64(arg.StartTime), nullInt64(arg.EndTime), nullString(arg.PhotoPath),
		arg.CategoryID, arg.UserID)
}

// UpdateExpense replaces the whole row identified by ExpenseID.
func (q *Queries) UpdateExpense(ctx context.Context, e Expense) error {
	return q.execOne(ctx, "update expense", `
UPDATE expenses
SET amount_cents = ?, description = ?, date = ?, start_time = ?, end_time = ?,
    photo_path = ?, category_id = ?, user_id = ?
WHERE expense_id = ?`,
		e.AmountCents, e.Description, e.Date,
		nullInt64(e.StartTime), nullInt64(e.EndTime), nullString(e.PhotoPath),
		e.CategoryID, e.UserID, e.ExpenseID)
}

func (q *Queries) DeleteExpense(ctx context.Context, expenseID int64) error {
	return q.execOne(ctx, "delete expense", `DELETE FROM expenses WHERE expense_id = ?`, expenseID)
}

const selectExpense = `
SELECT expense_id, amount_cents, description, date, start_time, end_time, photo_path, category_id, user_id
FROM expenses`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (Expense, error) {
	var (
		e          Expense
		start, end sql.NullInt64
		photo      sql.NullString
	)
	err := s.Scan(&e.ExpenseID, &e.AmountCents, &e.Description, &e.Date,
		&start, &end, &photo, &e.CategoryID, &e.UserID)
	if err != nil {
		return Expense{}, err
	}
	e.StartTime = int64Ptr(start)
	e.EndTime = int64Ptr(end)
	e.PhotoPath = photo.String
	return e, nil
}

func (q *Queries) GetExpense(ctx context.Context, expenseID int64) (Expense, error) {
	e, err := scanExpense(q.db.QueryRowContext(ctx, selectExpense+` WHERE expense_id = ?`, expenseID))
	if err != nil {
		return Expense{}, classify("get expense", err)
	}
	return e, nil
}

// ListExpensesParams bounds are inclusive epoch milliseconds.
type ListExpensesParams struct {
	UserID int64
	From   int64
	To     int64
}

// ListExpenses returns the user's expenses in range, newest date first.
func (q *Queries) ListExpenses(ctx context.Context, arg ListExpensesParams) ([]Expense, error) {
	return q.listExpenses(ctx, "list expenses",
		selectExpense+` WHERE user_id = ? AND date BETWEEN ? AND ? ORDER BY date DESC, expense_id DESC`,
		arg.UserID, arg.From, arg.To)
}

type CategoryRangeParams struct {
	UserID     int64
	CategoryID int64
	From       int64
	To         int64
}

func (q *Queries) ListExpensesByCategory(ctx context.Context, arg CategoryRangeParams) ([]Expense, error) {
	return q.listExpenses(ctx, "list expenses by category",
		selectExpense+` WHERE user_id = ? AND category_id = ? AND date BETWEEN ? AND ? ORDER BY date DESC, expense_id DESC`,
		arg.UserID, arg.CategoryID, arg.From, arg.To)
}

func (q *Queries) listExpenses(ctx context.Context, op, query string, args ...any) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	expenses := []Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return expenses, nil
}

// SumExpenses totals the amounts in cents; zero when nothing matches.
func (q *Queries) SumExpenses(ctx context.Context, arg CategoryRangeParams) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(amount_cents), 0)
FROM expenses
WHERE user_id = ? AND category_id = ? AND date BETWEEN ? AND ?`,
		arg.UserID, arg.CategoryID, arg.From, arg.To).Scan(&total)
	if err != nil {
		return 0, classify("sum expenses", err)
	}
	return total, nil
}
