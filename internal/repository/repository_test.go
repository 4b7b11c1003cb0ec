package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/live"
	"spendwise/internal/log"
	"spendwise/internal/storage"
)

type RepositorySuite struct {
	suite.Suite
	ctx   context.Context
	store *storage.Store
	hub   *live.Hub
	repos *Repositories
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	store, err := storage.Open(s.ctx, storage.MemoryPath)
	s.Require().NoError(err)
	s.store = store
	s.hub = live.NewHub(log.Discard())
	s.repos = New(store, s.hub, auth.NewHasher(bcrypt.MinCost), log.Discard())
}

func (s *RepositorySuite) TearDownTest() {
	s.hub.Close()
	s.store.Close()
}

func (s *RepositorySuite) register(name string) core.User {
	u, err := s.repos.Users.Register(s.ctx, name, "pw1")
	s.Require().NoError(err)
	return u
}

func (s *RepositorySuite) addCategory(userID int64, name string) int64 {
	id, err := s.repos.Categories.Add(s.ctx, core.Category{Name: name, UserID: userID})
	s.Require().NoError(err)
	return id
}

func (s *RepositorySuite) addExpense(userID, categoryID int64, amount string, date core.Date) int64 {
	id, err := s.repos.Expenses.Add(s.ctx, core.Expense{
		Amount:      decimal.RequireFromString(amount),
		Description: "item",
		Date:        date,
		CategoryID:  categoryID,
		UserID:      userID,
	})
	s.Require().NoError(err)
	return id
}

func (s *RepositorySuite) TestRegisterTwice() {
	s.register("alice")

	_, err := s.repos.Users.Register(s.ctx, "alice", "other")
	s.ErrorIs(err, core.ErrUsernameTaken)

	n, err := s.store.Queries().CountUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *RepositorySuite) TestRegisterStoresHashOnly() {
	u := s.register("alice")

	s.NotEqual("pw1", u.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw1")))
}

func (s *RepositorySuite) TestLogin() {
	alice := s.register("alice")

	u, err := s.repos.Users.Login(s.ctx, "alice", "pw1")
	s.Require().NoError(err)
	s.Equal(alice.ID, u.ID)

	_, wrongPassword := s.repos.Users.Login(s.ctx, "alice", "nope")
	_, unknownUser := s.repos.Users.Login(s.ctx, "mallory", "pw1")
	s.ErrorIs(wrongPassword, core.ErrInvalidCredentials)
	s.ErrorIs(unknownUser, core.ErrInvalidCredentials)
	s.Equal(wrongPassword.Error(), unknownUser.Error(), "failures must be indistinguishable")
}

func (s *RepositorySuite) TestCategoryDeleteCascades() {
	u := s.register("alice")
	food := s.addCategory(u.ID, "Food")
	rent := s.addCategory(u.ID, "Rent")
	s.addExpense(u.ID, food, "10", core.NewDate(2024, 3, 1))
	keep := s.addExpense(u.ID, rent, "20", core.NewDate(2024, 3, 1))

	s.Require().NoError(s.repos.Categories.Delete(s.ctx, food))

	left, err := s.repos.Expenses.List(s.ctx, u.ID, core.MonthPeriod(2024, 3))
	s.Require().NoError(err)
	s.Require().Len(left, 1)
	s.Equal(keep, left[0].ID)

	s.ErrorIs(s.repos.Categories.Delete(s.ctx, food), core.ErrNotFound)
}

func (s *RepositorySuite) TestUserDeleteCascades() {
	u := s.register("alice")
	cid := s.addCategory(u.ID, "Food")
	eid := s.addExpense(u.ID, cid, "10", core.NewDate(2024, 3, 1))
	_, err := s.repos.Goals.Set(s.ctx, core.BudgetGoal{Maximum: decimal.NewFromInt(5), Month: 3, Year: 2024, UserID: u.ID})
	s.Require().NoError(err)

	s.Require().NoError(s.repos.Users.Delete(s.ctx, u.ID))

	_, err = s.repos.Users.Get(s.ctx, u.ID)
	s.ErrorIs(err, core.ErrNotFound)
	_, err = s.repos.Categories.Get(s.ctx, cid)
	s.ErrorIs(err, core.ErrNotFound)
	_, err = s.repos.Expenses.Get(s.ctx, eid)
	s.ErrorIs(err, core.ErrNotFound)
	goals, err := s.repos.Goals.List(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Empty(goals)
}

func (s *RepositorySuite) TestTotalOfEmptyRangeIsZero() {
	u := s.register("alice")
	cid := s.addCategory(u.ID, "Food")

	total, err := s.repos.Expenses.Total(s.ctx, u.ID, cid, core.MonthPeriod(2024, 1))
	s.Require().NoError(err)
	s.True(total.IsZero())
}

func (s *RepositorySuite) TestGoalSetTwiceKeepsOneRow() {
	u := s.register("alice")
	goal := core.BudgetGoal{
		Minimum: decimal.NewFromInt(100),
		Maximum: decimal.NewFromInt(500),
		Month:   3,
		Year:    2024,
		UserID:  u.ID,
	}

	first, err := s.repos.Goals.Set(s.ctx, goal)
	s.Require().NoError(err)

	goal.Minimum = decimal.NewFromInt(150)
	goal.Maximum = decimal.NewFromInt(600)
	second, err := s.repos.Goals.Set(s.ctx, goal)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	goals, err := s.repos.Goals.List(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().Len(goals, 1)
	s.True(goals[0].Minimum.Equal(decimal.NewFromInt(150)))
	s.True(goals[0].Maximum.Equal(decimal.NewFromInt(600)))

	_, err = s.repos.Goals.Add(s.ctx, goal)
	s.ErrorIs(err, core.ErrIntegrityViolation)
}

func (s *RepositorySuite) TestGoalFor() {
	u := s.register("alice")

	_, err := s.repos.Goals.For(s.ctx, u.ID, 2024, 3)
	s.ErrorIs(err, core.ErrNotFound)

	set, err := s.repos.Goals.Set(s.ctx, core.BudgetGoal{Maximum: decimal.NewFromInt(10), Month: 3, Year: 2024, UserID: u.ID})
	s.Require().NoError(err)

	got, err := s.repos.Goals.For(s.ctx, u.ID, 2024, 3)
	s.Require().NoError(err)
	s.Equal(set.ID, got.ID)

	byID, err := s.repos.Goals.Get(s.ctx, set.ID)
	s.Require().NoError(err)
	s.Equal(got, byID)
}

func (s *RepositorySuite) TestAliceScenario() {
	u := s.register("alice")
	food := s.addCategory(u.ID, "Food")
	d1 := core.NewDate(2024, 3, 5)
	d2 := core.NewDate(2024, 3, 20)

	first := s.addExpense(u.ID, food, "12.50", d1)
	second := s.addExpense(u.ID, food, "7.25", d2)

	period := core.NewPeriod(d1, d2)
	total, err := s.repos.Expenses.Total(s.ctx, u.ID, food, period)
	s.Require().NoError(err)
	s.Equal("19.75", core.FormatAmount(total))

	list, err := s.repos.Expenses.List(s.ctx, u.ID, period)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(second, list[0].ID)
	s.Equal(first, list[1].ID)
	s.Equal(d2, list[0].Date)
}

func (s *RepositorySuite) TestForeignKeyViolation() {
	u := s.register("alice")

	_, err := s.repos.Expenses.Add(s.ctx, core.Expense{
		Amount: decimal.NewFromInt(1), Description: "x", Date: core.NewDate(2024, 1, 1),
		CategoryID: 999, UserID: u.ID,
	})
	s.ErrorIs(err, core.ErrIntegrityViolation)

	_, err = s.repos.Categories.Add(s.ctx, core.Category{Name: "Ghost", UserID: 999})
	s.ErrorIs(err, core.ErrIntegrityViolation)
	s.Equal(core.KindIntegrityViolation, core.KindOf(err))

	_, isStorage := storage.AsError(err)
	s.False(isStorage, "raw storage errors stay below the repository")
}

func (s *RepositorySuite) TestExpenseInOtherUsersCategory() {
	alice := s.register("alice")
	bob := s.register("bob")
	alicesFood := s.addCategory(alice.ID, "Food")
	bobsFood := s.addCategory(bob.ID, "Food")

	_, err := s.repos.Expenses.Add(s.ctx, core.Expense{
		Amount: decimal.NewFromInt(1), Description: "x", Date: core.NewDate(2024, 1, 1),
		CategoryID: bobsFood, UserID: alice.ID,
	})
	s.ErrorIs(err, core.ErrIntegrityViolation)

	id := s.addExpense(alice.ID, alicesFood, "5", core.NewDate(2024, 1, 1))
	moved, err := s.repos.Expenses.Get(s.ctx, id)
	s.Require().NoError(err)
	moved.CategoryID = bobsFood
	s.ErrorIs(s.repos.Expenses.Update(s.ctx, moved), core.ErrIntegrityViolation)

	// Bob's category going away leaves Alice's expenses alone.
	s.Require().NoError(s.repos.Categories.Delete(s.ctx, bobsFood))
	list, err := s.repos.Expenses.List(s.ctx, alice.ID, core.MonthPeriod(2024, 1))
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(alicesFood, list[0].CategoryID)
}

func (s *RepositorySuite) TestSubCentAmountsRejected() {
	u := s.register("alice")
	cid := s.addCategory(u.ID, "Food")

	for _, amount := range []string{"0.004", "-0.001", "0.00499"} {
		_, err := s.repos.Expenses.Add(s.ctx, core.Expense{
			Amount: decimal.RequireFromString(amount), Description: "crumbs", Date: core.NewDate(2024, 1, 1),
			CategoryID: cid, UserID: u.ID,
		})
		s.ErrorIs(err, core.ErrInvalidInput, amount)
	}

	id := s.addExpense(u.ID, cid, "0.005", core.NewDate(2024, 1, 1))
	got, err := s.repos.Expenses.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("0.01", core.FormatAmount(got.Amount))

	list, err := s.repos.Expenses.List(s.ctx, u.ID, core.MonthPeriod(2024, 1))
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *RepositorySuite) TestAmountsOutOfRangeRejected() {
	u := s.register("alice")
	cid := s.addCategory(u.ID, "Food")
	huge := decimal.RequireFromString("100000000000000000000")

	for _, amount := range []decimal.Decimal{huge, huge.Neg()} {
		_, err := s.repos.Expenses.Add(s.ctx, core.Expense{
			Amount: amount, Description: "yacht", Date: core.NewDate(2024, 1, 1),
			CategoryID: cid, UserID: u.ID,
		})
		s.ErrorIs(err, core.ErrInvalidInput, amount.String())
	}

	_, err := s.repos.Goals.Set(s.ctx, core.BudgetGoal{Maximum: huge, Month: 1, Year: 2024, UserID: u.ID})
	s.ErrorIs(err, core.ErrInvalidInput)
	_, err = s.repos.Goals.Add(s.ctx, core.BudgetGoal{Minimum: huge, Maximum: huge, Month: 1, Year: 2024, UserID: u.ID})
	s.ErrorIs(err, core.ErrInvalidInput)

	largest := core.FromCents(core.MaxAmountCents)
	id := s.addExpense(u.ID, cid, largest.String(), core.NewDate(2024, 1, 1))
	got, err := s.repos.Expenses.Get(s.ctx, id)
	s.Require().NoError(err)
	s.True(got.Amount.Equal(largest))

	goals, err := s.repos.Goals.List(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Empty(goals)
}

func (s *RepositorySuite) TestMissingRows() {
	u := s.register("alice")
	cid := s.addCategory(u.ID, "Food")

	s.ErrorIs(s.repos.Categories.Update(s.ctx, core.Category{ID: 999, Name: "x", UserID: u.ID}), core.ErrNotFound)
	s.ErrorIs(s.repos.Expenses.Delete(s.ctx, 999), core.ErrNotFound)
	s.ErrorIs(s.repos.Expenses.Update(s.ctx, core.Expense{
		ID: 999, Amount: decimal.NewFromInt(1), Description: "x", Date: core.NewDate(2024, 1, 1),
		CategoryID: cid, UserID: u.ID,
	}), core.ErrNotFound)
	s.ErrorIs(s.repos.Users.Delete(s.ctx, 999), core.ErrNotFound)
	_, err := s.repos.Goals.Get(s.ctx, 999)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestValidationBeforeStorage() {
	u := s.register("alice")

	_, err := s.repos.Categories.Add(s.ctx, core.Category{Name: "  ", UserID: u.ID})
	s.ErrorIs(err, core.ErrInvalidInput)

	_, err = s.repos.Goals.Set(s.ctx, core.BudgetGoal{Minimum: decimal.NewFromInt(5), Maximum: decimal.NewFromInt(1), Month: 1, Year: 2024, UserID: u.ID})
	s.ErrorIs(err, core.ErrInvalidInput)

	_, err = s.repos.Expenses.List(s.ctx, u.ID, core.NewPeriod(core.NewDate(2024, 2, 1), core.NewDate(2024, 1, 1)))
	s.ErrorIs(err, core.ErrInvalidInput)
}

func (s *RepositorySuite) TestExpenseUpdateReplacesAllFields() {
	u := s.register("alice")
	food := s.addCategory(u.ID, "Food")
	rent := s.addCategory(u.ID, "Rent")
	id := s.addExpense(u.ID, food, "10", core.NewDate(2024, 3, 1))

	start := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	updated := core.Expense{
		ID:          id,
		Amount:      decimal.RequireFromString("-4.20"),
		Description: "refund",
		Date:        core.NewDate(2024, 3, 2),
		StartTime:   &start,
		EndTime:     &end,
		PhotoPath:   "/tmp/receipt.jpg",
		CategoryID:  rent,
		UserID:      u.ID,
	}
	s.Require().NoError(s.repos.Expenses.Update(s.ctx, updated))

	got, err := s.repos.Expenses.Get(s.ctx, id)
	s.Require().NoError(err)
	s.True(got.Amount.Equal(updated.Amount))
	s.Equal(updated.Description, got.Description)
	s.Equal(updated.Date, got.Date)
	s.Equal(start, *got.StartTime)
	s.Equal(end, *got.EndTime)
	s.Equal(updated.PhotoPath, got.PhotoPath)
	s.Equal(rent, got.CategoryID)

	byRent, err := s.repos.Expenses.ListByCategory(s.ctx, u.ID, rent, core.MonthPeriod(2024, 3))
	s.Require().NoError(err)
	s.Len(byRent, 1)
}

func (s *RepositorySuite) TestCategoryRenameAndList() {
	u := s.register("alice")
	id := s.addCategory(u.ID, "Food")
	s.addCategory(u.ID, "Food")

	s.Require().NoError(s.repos.Categories.Update(s.ctx, core.Category{ID: id, Name: "Groceries", UserID: u.ID}))

	cats, err := s.repos.Categories.List(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().Len(cats, 2, "names are not unique")
	s.Equal("Groceries", cats[0].Name)
}

func (s *RepositorySuite) TestStorageUnavailable() {
	u := s.register("alice")
	s.Require().NoError(s.store.Close())

	_, err := s.repos.Categories.List(s.ctx, u.ID)
	s.ErrorIs(err, core.ErrStorageUnavailable)
}

func (s *RepositorySuite) TestWatchDeliversAfterMutation() {
	u := s.register("alice")
	cid := s.addCategory(u.ID, "Food")

	sub := s.repos.Expenses.Watch(s.ctx, u.ID, core.MonthPeriod(2024, 3))
	defer sub.Release()

	s.Empty(s.nextExpenses(sub))

	s.addExpense(u.ID, cid, "3", core.NewDate(2024, 3, 10))
	s.Len(s.nextExpenses(sub), 1)

	s.Require().NoError(s.repos.Categories.Delete(s.ctx, cid))
	s.Empty(s.nextExpenses(sub), "category cascade reaches expense watchers")
}

func (s *RepositorySuite) TestWatchIgnoresOtherUsers() {
	alice := s.register("alice")
	bob := s.register("bob")
	bobs := s.addCategory(bob.ID, "Food")

	sub := s.repos.Expenses.Watch(s.ctx, alice.ID, core.MonthPeriod(2024, 3))
	defer sub.Release()
	s.nextExpenses(sub)

	s.addExpense(bob.ID, bobs, "3", core.NewDate(2024, 3, 10))

	select {
	case r := <-sub.Updates():
		s.Failf("unexpected update", "%+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *RepositorySuite) TestNoDeliveryAfterRelease() {
	u := s.register("alice")

	sub := s.repos.Categories.Watch(s.ctx, u.ID)
	first := <-sub.Updates()
	s.Require().NoError(first.Err)

	sub.Release()
	s.addCategory(u.ID, "Food")

	_, ok := <-sub.Updates()
	s.False(ok)
	s.Zero(s.hub.Len())
}

func (s *RepositorySuite) TestGoalsWatch() {
	u := s.register("alice")

	sub := s.repos.Goals.Watch(s.ctx, u.ID)
	defer sub.Release()

	first := <-sub.Updates()
	s.Require().NoError(first.Err)
	s.Empty(first.Value)

	_, err := s.repos.Goals.Set(s.ctx, core.BudgetGoal{Maximum: decimal.NewFromInt(10), Month: 3, Year: 2024, UserID: u.ID})
	s.Require().NoError(err)

	select {
	case r := <-sub.Updates():
		s.Require().NoError(r.Err)
		s.Len(r.Value, 1)
	case <-time.After(2 * time.Second):
		s.Fail("no update after goal set")
	}
}

func (s *RepositorySuite) nextExpenses(sub *live.Subscription[[]core.Expense]) []core.Expense {
	select {
	case r, ok := <-sub.Updates():
		s.Require().True(ok)
		s.Require().NoError(r.Err)
		return r.Value
	case <-time.After(2 * time.Second):
		s.FailNow("no update delivered")
	}
	return nil
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	kept := core.NewValidationError("x", "bad")
	assert.Same(t, kept, translate(kept))

	err := translate(context.Canceled)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.Canceled)

	err = translate(assert.AnError)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, assert.AnError, "unknown faults are flattened to text")
}

func TestNew_Defaults(t *testing.T) {
	store, err := storage.Open(context.Background(), storage.MemoryPath)
	require.NoError(t, err)
	defer store.Close()

	repos := New(store, nil, nil, nil)
	require.NotNil(t, repos.Users.hub)
	require.NotNil(t, repos.Users.hasher)
}
