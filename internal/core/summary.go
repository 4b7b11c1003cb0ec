package core

import "github.com/shopspring/decimal"

// CategoryFailure records a category whose total could not be computed.
type CategoryFailure struct {
	CategoryID int64
	Err        error
}

// CategoryTotals is the per-category spend over a period. Categories whose
// query failed are listed in Failed instead of being silently dropped.
type CategoryTotals struct {
	Period Period
	Totals map[int64]decimal.Decimal
	Order  []int64 // successful ids in request order
	Failed []CategoryFailure
}

// Complete reports whether every requested category was computed.
func (t CategoryTotals) Complete() bool {
	return len(t.Failed) == 0
}

// FailedIDs lists the category ids whose query failed.
func (t CategoryTotals) FailedIDs() []int64 {
	ids := make([]int64, len(t.Failed))
	for i, f := range t.Failed {
		ids[i] = f.CategoryID
	}
	return ids
}

// Sum adds up every successful category total.
func (t CategoryTotals) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, id := range t.Order {
		sum = sum.Add(t.Totals[id])
	}
	return sum
}

type GoalStatus string

const (
	GoalStatusNone         GoalStatus = "no_goal"
	GoalStatusUnderMinimum GoalStatus = "under_minimum"
	GoalStatusWithin       GoalStatus = "within"
	GoalStatusOverMaximum  GoalStatus = "over_maximum"
)

// EvaluateGoal compares spent against the goal window. A nil goal yields GoalStatusNone.
func EvaluateGoal(goal *BudgetGoal, spent decimal.Decimal) GoalStatus {
	switch {
	case goal == nil:
		return GoalStatusNone
	case spent.LessThan(goal.Minimum):
		return GoalStatusUnderMinimum
	case spent.GreaterThan(goal.Maximum):
		return GoalStatusOverMaximum
	default:
		return GoalStatusWithin
	}
}

// CategorySpend is one category line of a month overview.
type CategorySpend struct {
	Category Category
	Total    decimal.Decimal
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Total      decimal.Decimal
	ByCategory []CategorySpend
	Failed     []CategoryFailure
	Goal       *BudgetGoal
	Status     GoalStatus
}
