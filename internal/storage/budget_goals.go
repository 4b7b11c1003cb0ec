package storage

import "context"

type GoalParams struct {
	MinimumCents int64
	MaximumCents int64
	Month        int64
	Year         int64
	UserID       int64
}

// InsertGoal fails with a constraint violation when the (user, month, year)
// tuple already has a goal.
func (q *Queries) InsertGoal(ctx context.Context, arg GoalParams) (int64, error) {
	return q.insert(ctx, "insert goal", `
INSERT INTO budget_goals (minimum_cents, maximum_cents, month, year, user_id)
VALUES (?, ?, ?, ?, ?)`,
		arg.MinimumCents, arg.MaximumCents, arg.Month, arg.Year, arg.UserID)
}

// ReplaceGoal inserts the goal or overwrites the bounds of the existing one
// for the same (user, month, year) in a single statement. The goal id is kept
// when a row is replaced.
func (q *Queries) ReplaceGoal(ctx context.Context, arg GoalParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `
INSERT INTO budget_goals (minimum_cents, maximum_cents, month, year, user_id)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, month, year) DO UPDATE
SET minimum_cents = excluded.minimum_cents,
    maximum_cents = excluded.maximum_cents
RETURNING goal_id`,
		arg.MinimumCents, arg.MaximumCents, arg.Month, arg.Year, arg.UserID).Scan(&id)
	if err != nil {
		return 0, classify("replace goal", err)
	}
	return id, nil
}

const selectGoal = `SELECT goal_id, minimum_cents, maximum_cents, month, year, user_id FROM budget_goals`

func (q *Queries) GetGoal(ctx context.Context, goalID int64) (BudgetGoal, error) {
	row := q.db.QueryRowContext(ctx, selectGoal+` WHERE goal_id = ?`, goalID)
	var g BudgetGoal
	if err := row.Scan(&g.GoalID, &g.MinimumCents, &g.MaximumCents, &g.Month, &g.Year, &g.UserID); err != nil {
		return BudgetGoal{}, classify("get goal", err)
	}
	return g, nil
}

func (q *Queries) GetGoalFor(ctx context.Context, userID, month, year int64) (BudgetGoal, error) {
	row := q.db.QueryRowContext(ctx, selectGoal+` WHERE user_id = ? AND month = ? AND year = ?`, userID, month, year)
	var g BudgetGoal
	if err := row.Scan(&g.GoalID, &g.MinimumCents, &g.MaximumCents, &g.Month, &g.Year, &g.UserID); err != nil {
		return BudgetGoal{}, classify("get goal for month", err)
	}
	return g, nil
}

// ListGoals returns the user's goals, most recent month first.
func (q *Queries) ListGoals(ctx context.Context, userID int64) ([]BudgetGoal, error) {
	rows, err := q.db.QueryContext(ctx, selectGoal+` WHERE user_id = ? ORDER BY year DESC, month DESC`, userID)
	if err != nil {
		return nil, classify("list goals", err)
	}
	defer rows.Close()

	goals := []BudgetGoal{}
	for rows.Next() {
		var g BudgetGoal
		if err := rows.Scan(&g.GoalID, &g.MinimumCents, &g.MaximumCents, &g.Month, &g.Year, &g.UserID); err != nil {
			return nil, classify("list goals", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list goals", err)
	}
	return goals, nil
}

func (q *Queries) CountGoals(ctx context.Context, userID, month, year int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budget_goals WHERE user_id = ? AND month = ? AND year = ?`,
		userID, month, year).Scan(&n)
	if err != nil {
		return 0, classify("count goals", err)
	}
	return n, nil
}
