package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
	"spendwise/internal/live"
	"spendwise/internal/log"
)

type ExpenseTotaler interface {
	Total(ctx context.Context, userID, categoryID int64, p core.Period) (decimal.Decimal, error)
}

type CategoryLister interface {
	List(ctx context.Context, userID int64) ([]core.Category, error)
}

type GoalFinder interface {
	For(ctx context.Context, userID int64, year, month int) (core.BudgetGoal, error)
}

// SummaryService aggregates per-category spend and compares it with the
// month's budget goal.
type SummaryService struct {
	expenses   ExpenseTotaler
	categories CategoryLister
	goals      GoalFinder
	logger     *log.Logger
}

func NewSummaryService(expenses ExpenseTotaler, categories CategoryLister, goals GoalFinder, logger *log.Logger) *SummaryService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SummaryService{
		expenses:   expenses,
		categories: categories,
		goals:      goals,
		logger:     logger.WithComponent(log.ComponentSummary),
	}
}

// CategoryTotals sums each category over p, one query per id in input
// order. A failing category does not stop the others; it is reported in
// Failed and left out of Totals. Repeated ids are queried once.
func (s *SummaryService) CategoryTotals(ctx context.Context, userID int64, p core.Period, categoryIDs []int64) core.CategoryTotals {
	result := core.CategoryTotals{
		Period: p,
		Totals: make(map[int64]decimal.Decimal, len(categoryIDs)),
	}
	seen := make(map[int64]struct{}, len(categoryIDs))

	for _, id := range categoryIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, core.CategoryFailure{CategoryID: id, Err: err})
			continue
		}

		total, err := s.expenses.Total(ctx, userID, id, p)
		if err != nil {
			s.logger.WarnContext(ctx, "Category total failed",
				log.FieldUserID, userID,
				log.FieldCategoryID, id,
				log.FieldPeriod, p.String(),
				log.FieldError, err)
			result.Failed = append(result.Failed, core.CategoryFailure{CategoryID: id, Err: err})
			continue
		}
		result.Totals[id] = total
		result.Order = append(result.Order, id)
	}

	return result
}

// MonthOverview summarizes every category of the user for one month.
func (s *SummaryService) MonthOverview(ctx context.Context, userID int64, year, month int) (core.MonthOverview, error) {
	if month < 1 || month > 12 {
		return core.MonthOverview{}, core.NewValidationError("month", "month must be between 1 and 12")
	}

	categories, err := s.categories.List(ctx, userID)
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("list categories: %w", err)
	}

	ids := make([]int64, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	totals := s.CategoryTotals(ctx, userID, core.MonthPeriod(year, month), ids)

	overview := core.MonthOverview{
		Year:   year,
		Month:  month,
		Total:  totals.Sum(),
		Failed: totals.Failed,
	}
	for _, c := range categories {
		if total, ok := totals.Totals[c.ID]; ok {
			overview.ByCategory = append(overview.ByCategory, core.CategorySpend{Category: c, Total: total})
		}
	}

	goal, err := s.goals.For(ctx, userID, year, month)
	switch {
	case err == nil:
		overview.Goal = &goal
	case errors.Is(err, core.ErrNotFound):
	default:
		return core.MonthOverview{}, fmt.Errorf("get budget goal: %w", err)
	}
	overview.Status = core.EvaluateGoal(overview.Goal, overview.Total)

	return overview, nil
}

// WatchMonth pushes a fresh MonthOverview whenever the user's categories,
// expenses or goals change.
func (s *SummaryService) WatchMonth(ctx context.Context, hub *live.Hub, userID int64, year, month int) *live.Subscription[core.MonthOverview] {
	topics := []live.Topic{
		{Table: live.TableCategories, UserID: userID},
		{Table: live.TableExpenses, UserID: userID},
		{Table: live.TableBudgetGoals, UserID: userID},
	}
	return live.Watch(ctx, hub, fmt.Sprintf("overview:%d:%d:%d", userID, year, month), topics,
		func(ctx context.Context) (core.MonthOverview, error) {
			return s.MonthOverview(ctx, userID, year, month)
		})
}
