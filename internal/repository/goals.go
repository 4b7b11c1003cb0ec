package repository

import (
	"context"
	"fmt"

	"spendwise/internal/core"
	"spendwise/internal/live"
	"spendwise/internal/log"
)

type Goals struct {
	base
}

func goalFields(g core.BudgetGoal) log.LogFields {
	return log.NewFields().
		WithUser(g.UserID).
		With(log.FieldGoalID, g.ID).
		With(log.FieldYear, g.Year).
		With(log.FieldMonth, g.Month)
}

// Add stores a goal for a month that has none yet. A second goal for the
// same (user, month, year) is an integrity violation; use Set to replace.
func (r *Goals) Add(ctx context.Context, g core.BudgetGoal) (int64, error) {
	if err := g.Validate(); err != nil {
		return 0, r.fail(ctx, log.OpCreate, goalFields(g), err)
	}

	id, err := r.q.InsertGoal(ctx, goalParams(g))
	if err != nil {
		return 0, r.fail(ctx, log.OpCreate, goalFields(g), err)
	}

	r.notify(g.UserID, live.TableBudgetGoals)
	return id, nil
}

// Set inserts the goal or atomically replaces the bounds of the existing
// one for the same month. The returned goal carries the stored id.
func (r *Goals) Set(ctx context.Context, g core.BudgetGoal) (core.BudgetGoal, error) {
	if err := g.Validate(); err != nil {
		return core.BudgetGoal{}, r.fail(ctx, log.OpReplace, goalFields(g), err)
	}

	id, err := r.q.ReplaceGoal(ctx, goalParams(g))
	if err != nil {
		return core.BudgetGoal{}, r.fail(ctx, log.OpReplace, goalFields(g), err)
	}

	r.notify(g.UserID, live.TableBudgetGoals)
	g.ID = id
	r.logger.InfoContext(ctx, "Budget goal set",
		log.FieldGoalID, id, log.FieldUserID, g.UserID, log.FieldYear, g.Year, log.FieldMonth, g.Month)
	return g, nil
}

func (r *Goals) Get(ctx context.Context, goalID int64) (core.BudgetGoal, error) {
	row, err := r.q.GetGoal(ctx, goalID)
	if err != nil {
		return core.BudgetGoal{}, r.fail(ctx, log.OpRead, log.NewFields().With(log.FieldGoalID, goalID), err)
	}
	return toGoal(row), nil
}

// For returns the user's goal for the given month, core.ErrNotFound when unset.
func (r *Goals) For(ctx context.Context, userID int64, year, month int) (core.BudgetGoal, error) {
	row, err := r.q.GetGoalFor(ctx, userID, int64(month), int64(year))
	if err != nil {
		fields := log.NewFields().WithUser(userID).With(log.FieldYear, year).With(log.FieldMonth, month)
		return core.BudgetGoal{}, r.fail(ctx, log.OpRead, fields, err)
	}
	return toGoal(row), nil
}

// List returns the user's goals, most recent month first.
func (r *Goals) List(ctx context.Context, userID int64) ([]core.BudgetGoal, error) {
	rows, err := r.q.ListGoals(ctx, userID)
	if err != nil {
		return nil, r.fail(ctx, log.OpList, log.NewFields().WithUser(userID), err)
	}
	return toGoals(rows), nil
}

func (r *Goals) Watch(ctx context.Context, userID int64) *live.Subscription[[]core.BudgetGoal] {
	return live.Watch(ctx, r.hub, fmt.Sprintf("goals:%d", userID),
		[]live.Topic{{Table: live.TableBudgetGoals, UserID: userID}},
		func(ctx context.Context) ([]core.BudgetGoal, error) {
			return r.List(ctx, userID)
		})
}
