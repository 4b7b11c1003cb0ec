package repository

import (
	"time"

	"spendwise/internal/core"
	"spendwise/internal/storage"
)

func toUser(u storage.User) core.User {
	return core.User{
		ID:           u.UserID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    time.UnixMilli(u.CreatedAt).UTC(),
	}
}

func toCategory(c storage.Category) core.Category {
	return core.Category{ID: c.CategoryID, Name: c.Name, UserID: c.UserID}
}

func toCategories(rows []storage.Category) []core.Category {
	out := make([]core.Category, len(rows))
	for i, c := range rows {
		out[i] = toCategory(c)
	}
	return out
}

func toExpense(e storage.Expense) core.Expense {
	return core.Expense{
		ID:          e.ExpenseID,
		Amount:      core.FromCents(e.AmountCents),
		Description: e.Description,
		Date:        core.DateFromMillis(e.Date),
		StartTime:   timePtr(e.StartTime),
		EndTime:     timePtr(e.EndTime),
		PhotoPath:   e.PhotoPath,
		CategoryID:  e.CategoryID,
		UserID:      e.UserID,
	}
}

func toExpenses(rows []storage.Expense) []core.Expense {
	out := make([]core.Expense, len(rows))
	for i, e := range rows {
		out[i] = toExpense(e)
	}
	return out
}

func expenseRow(e core.Expense) storage.Expense {
	return storage.Expense{
		ExpenseID:   e.ID,
		AmountCents: core.ToCents(e.Amount),
		Description: e.Description,
		Date:        core.DateOf(e.Date.Time).Millis(),
		StartTime:   millisPtr(e.StartTime),
		EndTime:     millisPtr(e.EndTime),
		PhotoPath:   e.PhotoPath,
		CategoryID:  e.CategoryID,
		UserID:      e.UserID,
	}
}

func toGoal(g storage.BudgetGoal) core.BudgetGoal {
	return core.BudgetGoal{
		ID:      g.GoalID,
		Minimum: core.FromCents(g.MinimumCents),
		Maximum: core.FromCents(g.MaximumCents),
		Month:   int(g.Month),
		Year:    int(g.Year),
		UserID:  g.UserID,
	}
}

func toGoals(rows []storage.BudgetGoal) []core.BudgetGoal {
	out := make([]core.BudgetGoal, len(rows))
	for i, g := range rows {
		out[i] = toGoal(g)
	}
	return out
}

func goalParams(g core.BudgetGoal) storage.GoalParams {
	return storage.GoalParams{
		MinimumCents: core.ToCents(g.Minimum),
		MaximumCents: core.ToCents(g.Maximum),
		Month:        int64(g.Month),
		Year:         int64(g.Year),
		UserID:       g.UserID,
	}
}

func timePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func rangeParams(userID, categoryID int64, p core.Period) storage.CategoryRangeParams {
	return storage.CategoryRangeParams{
		UserID:     userID,
		CategoryID: categoryID,
		From:       p.From.Millis(),
		To:         p.To.Millis(),
	}
}
