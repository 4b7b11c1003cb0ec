package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

type fakeTotals struct {
	totals map[int64]string
	fail   map[int64]bool
	calls  []int64
}

func (f *fakeTotals) Total(_ context.Context, _ int64, categoryID int64, _ core.Period) (decimal.Decimal, error) {
	f.calls = append(f.calls, categoryID)
	if f.fail[categoryID] {
		return decimal.Zero, core.ErrStorageUnavailable
	}
	if s, ok := f.totals[categoryID]; ok {
		return decimal.RequireFromString(s), nil
	}
	return decimal.Zero, nil
}

type fakeCategories []core.Category

func (f fakeCategories) List(context.Context, int64) ([]core.Category, error) {
	return f, nil
}

type fakeGoals map[[2]int]core.BudgetGoal

func (f fakeGoals) For(_ context.Context, _ int64, year, month int) (core.BudgetGoal, error) {
	g, ok := f[[2]int{year, month}]
	if !ok {
		return core.BudgetGoal{}, core.ErrNotFound
	}
	return g, nil
}

func TestSummaryService_CategoryTotals(t *testing.T) {
	totals := &fakeTotals{
		totals: map[int64]string{1: "12.50", 3: "7.25"},
		fail:   map[int64]bool{2: true},
	}
	svc := NewSummaryService(totals, nil, nil, log.Discard())

	got := svc.CategoryTotals(context.Background(), 1, core.MonthPeriod(2024, 3), []int64{3, 1, 2, 1, 4})

	assert.Equal(t, []int64{3, 1, 2, 4}, totals.calls, "sequential, in input order, duplicates once")
	assert.Equal(t, []int64{3, 1, 4}, got.Order)
	assert.Equal(t, []int64{2}, got.FailedIDs())
	assert.ErrorIs(t, got.Failed[0].Err, core.ErrStorageUnavailable)
	assert.False(t, got.Complete())
	assert.True(t, got.Totals[4].IsZero())
	assert.True(t, got.Sum().Equal(decimal.RequireFromString("19.75")))
	_, present := got.Totals[2]
	assert.False(t, present, "failed categories are not reported as zero")
}

func TestSummaryService_CategoryTotalsCancelled(t *testing.T) {
	totals := &fakeTotals{}
	svc := NewSummaryService(totals, nil, nil, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := svc.CategoryTotals(ctx, 1, core.MonthPeriod(2024, 3), []int64{1, 2})

	assert.Empty(t, totals.calls)
	assert.Equal(t, []int64{1, 2}, got.FailedIDs())
}

func TestSummaryService_MonthOverview(t *testing.T) {
	cats := fakeCategories{
		{ID: 1, Name: "Food", UserID: 1},
		{ID: 2, Name: "Rent", UserID: 1},
	}
	totals := &fakeTotals{totals: map[int64]string{1: "120", 2: "500"}}
	goals := fakeGoals{{2024, 3}: {Minimum: decimal.NewFromInt(100), Maximum: decimal.NewFromInt(600)}}
	svc := NewSummaryService(totals, cats, goals, log.Discard())

	ov, err := svc.MonthOverview(context.Background(), 1, 2024, 3)
	require.NoError(t, err)
	assert.True(t, ov.Total.Equal(decimal.NewFromInt(620)))
	require.Len(t, ov.ByCategory, 2)
	assert.Equal(t, "Food", ov.ByCategory[0].Category.Name)
	require.NotNil(t, ov.Goal)
	assert.Equal(t, core.GoalStatusOverMaximum, ov.Status)

	ov, err = svc.MonthOverview(context.Background(), 1, 2024, 4)
	require.NoError(t, err)
	assert.Nil(t, ov.Goal)
	assert.Equal(t, core.GoalStatusNone, ov.Status)

	_, err = svc.MonthOverview(context.Background(), 1, 2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
