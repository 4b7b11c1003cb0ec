package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
	"spendwise/internal/live"
	"spendwise/internal/log"
	"spendwise/internal/storage"
)

type Expenses struct {
	base
}

func expenseFields(e core.Expense) log.LogFields {
	return log.NewFields().
		WithUser(e.UserID).
		With(log.FieldExpenseID, e.ID).
		With(log.FieldCategoryID, e.CategoryID)
}

func (r *Expenses) Add(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, r.fail(ctx, log.OpCreate, expenseFields(e), err)
	}

	if err := r.checkCategory(ctx, e); err != nil {
		return 0, r.fail(ctx, log.OpCreate, expenseFields(e), err)
	}

	row := expenseRow(e)
	id, err := r.q.InsertExpense(ctx, storage.InsertExpenseParams{
		AmountCents: row.AmountCents,
		Description: row.Description,
		Date:        row.Date,
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		PhotoPath:   row.PhotoPath,
		CategoryID:  row.CategoryID,
		UserID:      row.UserID,
	})
	if err != nil {
		return 0, r.fail(ctx, log.OpCreate, expenseFields(e), err)
	}

	r.notify(e.UserID, live.TableExpenses)
	r.logger.DebugContext(ctx, "Expense added",
		log.FieldExpenseID, id, log.FieldUserID, e.UserID, log.FieldAmount, core.FormatAmount(e.Amount))
	return id, nil
}

// Update replaces every field of the stored expense.
func (r *Expenses) Update(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return r.fail(ctx, log.OpUpdate, expenseFields(e), err)
	}

	prev, err := r.q.GetExpense(ctx, e.ID)
	if err != nil {
		return r.fail(ctx, log.OpUpdate, expenseFields(e), err)
	}
	if err := r.checkCategory(ctx, e); err != nil {
		return r.fail(ctx, log.OpUpdate, expenseFields(e), err)
	}
	if err := r.q.UpdateExpense(ctx, expenseRow(e)); err != nil {
		return r.fail(ctx, log.OpUpdate, expenseFields(e), err)
	}

	r.notify(e.UserID, live.TableExpenses)
	if prev.UserID != e.UserID {
		r.notify(prev.UserID, live.TableExpenses)
	}
	return nil
}

// checkCategory fails with core.ErrIntegrityViolation unless the expense's
// category exists and belongs to the expense's user.
func (r *Expenses) checkCategory(ctx context.Context, e core.Expense) error {
	c, err := r.q.GetCategory(ctx, e.CategoryID)
	if isNoRows(err) {
		return fmt.Errorf("%w: category %d does not exist", core.ErrIntegrityViolation, e.CategoryID)
	}
	if err != nil {
		return err
	}
	if c.UserID != e.UserID {
		return fmt.Errorf("%w: category %d belongs to another user", core.ErrIntegrityViolation, e.CategoryID)
	}
	return nil
}

func (r *Expenses) Delete(ctx context.Context, expenseID int64) error {
	fields := log.NewFields().With(log.FieldExpenseID, expenseID)

	prev, err := r.q.GetExpense(ctx, expenseID)
	if err != nil {
		return r.fail(ctx, log.OpDelete, fields, err)
	}
	if err := r.q.DeleteExpense(ctx, expenseID); err != nil {
		return r.fail(ctx, log.OpDelete, fields, err)
	}

	r.notify(prev.UserID, live.TableExpenses)
	return nil
}

func (r *Expenses) Get(ctx context.Context, expenseID int64) (core.Expense, error) {
	row, err := r.q.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, r.fail(ctx, log.OpRead, log.NewFields().With(log.FieldExpenseID, expenseID), err)
	}
	return toExpense(row), nil
}

// List returns the user's expenses dated inside p, newest first.
func (r *Expenses) List(ctx context.Context, userID int64, p core.Period) ([]core.Expense, error) {
	fields := log.NewFields().WithUser(userID).With(log.FieldPeriod, p.String())
	if err := p.Validate(); err != nil {
		return nil, r.fail(ctx, log.OpList, fields, err)
	}

	rows, err := r.q.ListExpenses(ctx, storage.ListExpensesParams{
		UserID: userID,
		From:   p.From.Millis(),
		To:     p.To.Millis(),
	})
	if err != nil {
		return nil, r.fail(ctx, log.OpList, fields, err)
	}
	return toExpenses(rows), nil
}

// ListByCategory narrows List to a single category.
func (r *Expenses) ListByCategory(ctx context.Context, userID, categoryID int64, p core.Period) ([]core.Expense, error) {
	fields := log.NewFields().WithUser(userID).With(log.FieldCategoryID, categoryID).With(log.FieldPeriod, p.String())
	if err := p.Validate(); err != nil {
		return nil, r.fail(ctx, log.OpList, fields, err)
	}

	rows, err := r.q.ListExpensesByCategory(ctx, rangeParams(userID, categoryID, p))
	if err != nil {
		return nil, r.fail(ctx, log.OpList, fields, err)
	}
	return toExpenses(rows), nil
}

// Total sums one category's expenses inside p. An empty range sums to zero.
func (r *Expenses) Total(ctx context.Context, userID, categoryID int64, p core.Period) (decimal.Decimal, error) {
	fields := log.NewFields().WithUser(userID).With(log.FieldCategoryID, categoryID).With(log.FieldPeriod, p.String())
	if err := p.Validate(); err != nil {
		return decimal.Zero, r.fail(ctx, log.OpSum, fields, err)
	}

	cents, err := r.q.SumExpenses(ctx, rangeParams(userID, categoryID, p))
	if err != nil {
		return decimal.Zero, r.fail(ctx, log.OpSum, fields, err)
	}
	return core.FromCents(cents), nil
}

// Watch pushes the user's expense list for p after every change to it.
func (r *Expenses) Watch(ctx context.Context, userID int64, p core.Period) *live.Subscription[[]core.Expense] {
	key := fmt.Sprintf("expenses:%d:%d:%d", userID, p.From.Millis(), p.To.Millis())
	return live.Watch(ctx, r.hub, key,
		[]live.Topic{{Table: live.TableExpenses, UserID: userID}},
		func(ctx context.Context) ([]core.Expense, error) {
			return r.List(ctx, userID, p)
		})
}
