package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"spendwise/internal/core"
)

type expenseFlags struct {
	fs       *flag.FlagSet
	amount   *string
	desc     *string
	category *int64
	date     *string
	start    *string
	end      *string
	photo    *string
}

func newExpenseFlags(e *env, name string) *expenseFlags {
	fs := e.flags(name)
	return &expenseFlags{
		fs:       fs,
		amount:   fs.String("amount", "", "Amount, e.g. 12.50 (negative for refunds)"),
		desc:     fs.String("desc", "", "Description"),
		category: fs.Int64("category", 0, "Category ID"),
		date:     fs.String("date", "", "Date as YYYY-MM-DD (default today)"),
		start:    fs.String("start", "", "Start time as HH:MM"),
		end:      fs.String("end", "", "End time as HH:MM"),
		photo:    fs.String("photo", "", "Path to a receipt photo"),
	}
}

// apply copies the flags that were given onto ex.
func (f *expenseFlags) apply(ex *core.Expense) error {
	set := map[string]bool{}
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if set["amount"] {
		amount, err := core.ParseAmount(*f.amount)
		if err != nil {
			return err
		}
		ex.Amount = amount
	}
	if set["desc"] {
		ex.Description = *f.desc
	}
	if set["category"] {
		ex.CategoryID = *f.category
	}
	if set["date"] {
		d, err := parseDate(*f.date)
		if err != nil {
			return err
		}
		ex.Date = d
		// Times of day follow the expense to its new date.
		ex.StartTime = moveToDate(ex.StartTime, d)
		ex.EndTime = moveToDate(ex.EndTime, d)
	}
	if set["start"] {
		t, err := parseClock("start_time", ex.Date, *f.start)
		if err != nil {
			return err
		}
		ex.StartTime = t
	}
	if set["end"] {
		t, err := parseClock("end_time", ex.Date, *f.end)
		if err != nil {
			return err
		}
		ex.EndTime = t
	}
	if set["photo"] {
		ex.PhotoPath = *f.photo
	}
	return nil
}

func moveToDate(t *time.Time, d core.Date) *time.Time {
	if t == nil {
		return nil
	}
	moved, _ := parseClock("time", d, t.Format("15:04"))
	return moved
}

func ownedExpense(e *env, userID, id int64) (core.Expense, error) {
	ex, err := call(e, func(ctx context.Context) (core.Expense, error) {
		return e.app.Repos.Expenses.Get(ctx, id)
	})
	if err != nil {
		return core.Expense{}, err
	}
	if ex.UserID != userID {
		return core.Expense{}, fmt.Errorf("%w: expense %d", core.ErrNotFound, id)
	}
	return ex, nil
}

func cmdExpenseAdd(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	f := newExpenseFlags(e, "expense add")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if *f.amount == "" {
		return core.NewValidationError("amount", "-amount is required")
	}

	ex := core.Expense{UserID: s.UserID, Date: core.DateOf(e.now())}
	if err := f.apply(&ex); err != nil {
		return err
	}
	if ex.CategoryID > 0 {
		if _, err := ownedCategory(e, s.UserID, ex.CategoryID); err != nil {
			return err
		}
	}

	id, err := call(e, func(ctx context.Context) (int64, error) {
		return e.app.Repos.Expenses.Add(ctx, ex)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Expense %d added: %s on %s\n", id, core.FormatAmount(ex.Amount), ex.Date)
	return nil
}

func cmdExpenseEdit(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("usage: expense edit <id> [flags]")
	}
	id, err := parseID("expense id", args[0])
	if err != nil {
		return err
	}
	f := newExpenseFlags(e, "expense edit")
	if err := f.fs.Parse(args[1:]); err != nil {
		return err
	}

	ex, err := ownedExpense(e, s.UserID, id)
	if err != nil {
		return err
	}
	before := ex.CategoryID
	if err := f.apply(&ex); err != nil {
		return err
	}
	if ex.CategoryID != before {
		if _, err := ownedCategory(e, s.UserID, ex.CategoryID); err != nil {
			return err
		}
	}

	_, err = call(e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.app.Repos.Expenses.Update(ctx, ex)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Expense %d updated\n", id)
	return nil
}

func cmdExpenseRemove(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: expense rm <id>")
	}
	id, err := parseID("expense id", args[0])
	if err != nil {
		return err
	}
	if _, err := ownedExpense(e, s.UserID, id); err != nil {
		return err
	}

	_, err = call(e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.app.Repos.Expenses.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Expense %d deleted\n", id)
	return nil
}

func cmdExpenseShow(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: expense show <id>")
	}
	id, err := parseID("expense id", args[0])
	if err != nil {
		return err
	}
	ex, err := ownedExpense(e, s.UserID, id)
	if err != nil {
		return err
	}
	c, err := ownedCategory(e, s.UserID, ex.CategoryID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%d\n", ex.ID)
	fmt.Fprintf(w, "Date\t%s\n", ex.Date)
	fmt.Fprintf(w, "Amount\t%s\n", core.FormatAmount(ex.Amount))
	fmt.Fprintf(w, "Description\t%s\n", ex.Description)
	fmt.Fprintf(w, "Category\t%s (%d)\n", c.Name, c.ID)
	if ex.StartTime != nil || ex.EndTime != nil {
		fmt.Fprintf(w, "Time\t%s-%s\n", formatClock(ex.StartTime), formatClock(ex.EndTime))
	}
	if ex.PhotoPath != "" {
		fmt.Fprintf(w, "Photo\t%s\n", ex.PhotoPath)
	}
	return w.Flush()
}

func cmdExpenseList(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	fs := e.flags("expense list")
	month := fs.String("month", "", "Month as YYYY-MM (default current month)")
	from := fs.String("from", "", "First day as YYYY-MM-DD")
	to := fs.String("to", "", "Last day as YYYY-MM-DD")
	category := fs.Int64("category", 0, "Only this category ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	period, err := periodFromFlags(e, *month, *from, *to)
	if err != nil {
		return err
	}

	expenses, err := call(e, func(ctx context.Context) ([]core.Expense, error) {
		if *category > 0 {
			return e.app.Repos.Expenses.ListByCategory(ctx, s.UserID, *category, period)
		}
		return e.app.Repos.Expenses.List(ctx, s.UserID, period)
	})
	if err != nil {
		return err
	}
	names, err := categoryNames(e, s.UserID)
	if err != nil {
		return err
	}

	if len(expenses) == 0 {
		fmt.Fprintf(e.stdout, "No expenses in %s\n", period)
		return nil
	}
	w := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION")
	for _, ex := range expenses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			ex.ID, ex.Date, core.FormatAmount(ex.Amount), names[ex.CategoryID], ex.Description)
	}
	return w.Flush()
}

func periodFromFlags(e *env, month, from, to string) (core.Period, error) {
	switch {
	case from != "" || to != "":
		if from == "" || to == "" {
			return core.Period{}, core.NewValidationError("period", "-from and -to go together")
		}
		f, err := parseDate(from)
		if err != nil {
			return core.Period{}, err
		}
		t, err := parseDate(to)
		if err != nil {
			return core.Period{}, err
		}
		p := core.NewPeriod(f, t)
		return p, p.Validate()
	case month != "":
		y, m, err := parseMonth(month)
		if err != nil {
			return core.Period{}, err
		}
		return core.MonthPeriod(y, m), nil
	default:
		return core.CurrentMonth(e.now()), nil
	}
}

func categoryNames(e *env, userID int64) (map[int64]string, error) {
	cats, err := call(e, func(ctx context.Context) ([]core.Category, error) {
		return e.app.Repos.Categories.List(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}
