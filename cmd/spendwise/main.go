package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"spendwise/internal/cli"
	"spendwise/internal/config"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/session"
	"spendwise/internal/worker"
)

const usageText = `Usage: spendwise [-db path] [-log-level level] [-env file] <command> [args]

Accounts:
  register [-user name] [-password pw]      create an account
  login [-user name] [-password pw]         sign in
  logout                                    sign out
  whoami                                    show the signed-in user

Categories:
  category add <name>
  category list
  category rename <id> <name>
  category rm <id>                          also removes its expenses

Expenses:
  expense add -amount 12.50 -desc text -category id [-date YYYY-MM-DD] [-start HH:MM] [-end HH:MM] [-photo path]
  expense edit <id> [same flags as add]
  expense rm <id>
  expense show <id>
  expense list [-month YYYY-MM | -from YYYY-MM-DD -to YYYY-MM-DD] [-category id]

Budget goals:
  goal set [-month YYYY-MM] -min amount -max amount
  goal list

Reports:
  summary [-month YYYY-MM]
  watch [-month YYYY-MM] [-count n]         live month overview

Administration:
  admin deluser <user-id> -yes              delete a user and all their data
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

func formatError(err error) string {
	kind := core.KindOf(err)
	if kind == core.KindUnknown || kind == core.KindNone {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Error [%s]: %v", kind, err)
}

// env is what every command needs: the wired app and the terminal.
type env struct {
	ctx    context.Context
	app    *cli.App
	stdin  io.Reader
	in     *bufio.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"register": cmdRegister,
	"login":    cmdLogin,
	"logout":   cmdLogout,
	"whoami":   cmdWhoami,
	"category": group("category", map[string]command{
		"add":    cmdCategoryAdd,
		"list":   cmdCategoryList,
		"rename": cmdCategoryRename,
		"rm":     cmdCategoryRemove,
	}),
	"expense": group("expense", map[string]command{
		"add":  cmdExpenseAdd,
		"edit": cmdExpenseEdit,
		"rm":   cmdExpenseRemove,
		"show": cmdExpenseShow,
		"list": cmdExpenseList,
	}),
	"goal": group("goal", map[string]command{
		"set":  cmdGoalSet,
		"list": cmdGoalList,
	}),
	"summary": cmdSummary,
	"watch":   cmdWatch,
	"admin": group("admin", map[string]command{
		"deluser": cmdAdminDeleteUser,
	}),
}

func group(name string, subs map[string]command) command {
	return func(e *env, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("missing %s subcommand", name)
		}
		sub, ok := subs[args[0]]
		if !ok {
			return fmt.Errorf("unknown %s subcommand %q", name, args[0])
		}
		return sub(e, args[1:])
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("spendwise", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	dbPath := fs.String("db", "", "Path to database file (overrides SPENDWISE_DB_PATH)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	envFile := fs.String("env", ".env", "Env file to load before reading configuration")

	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprint(stdout, usageText)
		return fmt.Errorf("missing command")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprint(stdout, usageText)
		return fmt.Errorf("unknown command %q", rest[0])
	}

	if err := cli.LoadEnvFile(*envFile); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig(func(c *config.Config) {
		if *dbPath != "" {
			c.DBPath = *dbPath
		}
		if *logLevel != "" {
			c.LogLevel = *logLevel
		}
	})
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cfg, stderr)
	if err != nil {
		return err
	}

	ctx := log.WithRunID(context.Background(), log.NewRunID())
	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := app.Close(closeCtx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	e := &env{
		ctx:    ctx,
		app:    app,
		stdin:  stdin,
		in:     bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
	if err := cmd(e, rest[1:]); err != nil {
		logger.WithComponent(log.ComponentCLI).DebugContext(ctx, "Command failed",
			"command", rest[0], log.FieldErrorKind, string(core.KindOf(err)), log.FieldError, err)
		return err
	}
	return nil
}

// call runs fn on the worker pool and waits for its result.
func call[T any](e *env, fn func(ctx context.Context) (T, error)) (T, error) {
	return worker.Await(e.ctx, e.app.Pool, fn)
}

func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// currentUser returns the signed-in user, dropping sessions whose account
// no longer exists.
func (e *env) currentUser() (session.Session, error) {
	s, err := e.app.Sessions.Load()
	if errors.Is(err, session.ErrNoSession) {
		return session.Session{}, errors.New("not logged in: run 'spendwise login'")
	}
	if err != nil {
		return session.Session{}, err
	}

	_, err = call(e, func(ctx context.Context) (core.User, error) {
		return e.app.Repos.Users.Get(ctx, s.UserID)
	})
	if errors.Is(err, core.ErrNotFound) {
		_ = e.app.Sessions.Clear()
		return session.Session{}, errors.New("not logged in: account no longer exists")
	}
	if err != nil {
		return session.Session{}, err
	}
	return s, nil
}

func (e *env) prompt(label string) (string, error) {
	fmt.Fprint(e.stdout, label)
	line, err := e.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (e *env) readPassword(label string) (string, error) {
	if f, ok := e.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(e.stdout, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(e.stdout)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	pw, err := e.prompt(label)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(e.stdout)
	return pw, nil
}
