package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"spendwise/internal/core"
)

func cmdGoalSet(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	fs := e.flags("goal set")
	month := fs.String("month", "", "Month as YYYY-MM (default current month)")
	minimum := fs.String("min", "0", "Least you plan to spend")
	maximum := fs.String("max", "", "Most you plan to spend")
	if err := fs.Parse(args); err != nil {
		return err
	}

	year, m := e.now().Year(), int(e.now().Month())
	if *month != "" {
		if year, m, err = parseMonth(*month); err != nil {
			return err
		}
	}
	lo, err := core.ParseGoalBound("minimum", *minimum)
	if err != nil {
		return err
	}
	hi, err := core.ParseGoalBound("maximum", *maximum)
	if err != nil {
		return err
	}

	goal, err := call(e, func(ctx context.Context) (core.BudgetGoal, error) {
		return e.app.Repos.Goals.Set(ctx, core.BudgetGoal{
			Minimum: lo,
			Maximum: hi,
			Month:   m,
			Year:    year,
			UserID:  s.UserID,
		})
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Goal for %04d-%02d set: %s to %s\n",
		goal.Year, goal.Month, core.FormatAmount(goal.Minimum), core.FormatAmount(goal.Maximum))
	return nil
}

func cmdGoalList(e *env, _ []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	goals, err := call(e, func(ctx context.Context) ([]core.BudgetGoal, error) {
		return e.app.Repos.Goals.List(ctx, s.UserID)
	})
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		fmt.Fprintln(e.stdout, "No budget goals")
		return nil
	}

	w := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tMINIMUM\tMAXIMUM")
	for _, g := range goals {
		fmt.Fprintf(w, "%04d-%02d\t%s\t%s\n", g.Year, g.Month, core.FormatAmount(g.Minimum), core.FormatAmount(g.Maximum))
	}
	return w.Flush()
}
