package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"spendwise/internal/cli"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/worker"
)

func monthFlag(e *env, value string) (int, int, error) {
	if value == "" {
		now := e.now()
		return now.Year(), int(now.Month()), nil
	}
	return parseMonth(value)
}

func cmdSummary(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	fs := e.flags("summary")
	month := fs.String("month", "", "Month as YYYY-MM (default current month)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	year, m, err := monthFlag(e, *month)
	if err != nil {
		return err
	}

	overview, err := call(e, func(ctx context.Context) (core.MonthOverview, error) {
		return e.app.Summary.MonthOverview(ctx, s.UserID, year, m)
	})
	if err != nil {
		return err
	}
	return printOverview(e.stdout, overview)
}

func printOverview(out io.Writer, ov core.MonthOverview) error {
	fmt.Fprintf(out, "Summary for %04d-%02d\n", ov.Year, ov.Month)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, line := range ov.ByCategory {
		fmt.Fprintf(w, "  %s\t%s\n", line.Category.Name, core.FormatAmount(line.Total))
	}
	fmt.Fprintf(w, "  Total\t%s\n", core.FormatAmount(ov.Total))
	if err := w.Flush(); err != nil {
		return err
	}

	for _, f := range ov.Failed {
		fmt.Fprintf(out, "  ! category %d could not be totalled: %s\n", f.CategoryID, core.KindOf(f.Err))
	}

	switch ov.Status {
	case core.GoalStatusNone:
		fmt.Fprintln(out, "No budget goal for this month")
	default:
		fmt.Fprintf(out, "Goal %s to %s: %s\n",
			core.FormatAmount(ov.Goal.Minimum), core.FormatAmount(ov.Goal.Maximum), ov.Status)
	}
	return nil
}

// cmdWatch prints the month overview and reprints it after every change,
// including commits made by other spendwise processes.
func cmdWatch(e *env, args []string) error {
	s, err := e.currentUser()
	if err != nil {
		return err
	}
	fs := e.flags("watch")
	month := fs.String("month", "", "Month as YYYY-MM (default current month)")
	count := fs.Int("count", 0, "Stop after this many updates (0 = until interrupted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	year, m, err := monthFlag(e, *month)
	if err != nil {
		return err
	}

	logger := e.app.Logger.WithComponent(log.ComponentCLI)
	parent, cancel := context.WithCancel(e.ctx)
	ctx, done := cli.GracefulShutdown(parent, logger, 2*time.Second, nil)
	defer func() {
		cancel()
		<-done
	}()

	sub := e.app.Summary.WatchMonth(ctx, e.app.Hub, s.UserID, year, m)
	defer sub.Release()

	go func() {
		err := e.app.Hub.PollExternal(ctx, e.app.Config.WatchInterval, e.app.Store.DataVersion)
		if err != nil && ctx.Err() == nil {
			logger.Warn("Stopped watching for external changes", log.FieldError, err)
		}
	}()

	// Snapshots are rendered on one loop so output never interleaves.
	loop := worker.NewLoop(1)
	defer loop.Close()

	printed := 0
	render := func(res worker.Result[core.MonthOverview]) {
		printed++
		if printed > 1 {
			fmt.Fprintln(e.stdout)
		}
		ov, err := res.Unpack()
		if err != nil {
			fmt.Fprintln(e.stdout, formatError(err))
			return
		}
		_ = printOverview(e.stdout, ov)
	}
	go func() {
		for res := range sub.Updates() {
			res := res
			loop.Execute(func() { render(res) })
		}
		loop.Close()
	}()

	err = loop.RunUntil(ctx, func() bool { return *count > 0 && printed >= *count })
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
