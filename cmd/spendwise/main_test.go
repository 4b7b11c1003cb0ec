package main

import (
	"bytes"
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
)

// setupEnv points every run at a fresh database and session under a temp dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SPENDWISE_DB_PATH", filepath.Join(dir, "spendwise.db"))
	t.Setenv("SPENDWISE_SESSION_FILE", filepath.Join(dir, "session"))
	t.Setenv("SPENDWISE_SESSION_KEY_FILE", filepath.Join(dir, "session.key"))
	t.Setenv("SPENDWISE_BCRYPT_COST", "4")
	t.Setenv("SPENDWISE_LOG_LEVEL", "error")
	return dir
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	err := run(args, strings.NewReader(stdin), stdout, stderr)
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, "", args...)
	require.NoError(t, err, "spendwise %s", strings.Join(args, " "))
	return out
}

func TestRun_MissingCommand(t *testing.T) {
	out, err := runCmd(t, "")
	require.Error(t, err)
	assert.Contains(t, out, "Usage:")

	_, err = runCmd(t, "", "frobnicate")
	assert.ErrorContains(t, err, `unknown command "frobnicate"`)

	_, err = runCmd(t, "", "-h")
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestRun_RegisterAndLogin(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "register", "-user", "alice", "-password", "pw1234")
	assert.Contains(t, out, "User alice created successfully")

	_, err := runCmd(t, "", "register", "-user", "alice", "-password", "pw1234")
	assert.ErrorIs(t, err, core.ErrUsernameTaken)
	assert.Equal(t, "Error [username_taken]: username taken: alice", formatError(err))

	_, err = runCmd(t, "", "login", "-user", "alice", "-password", "nope")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	out = mustRun(t, "login", "-user", "alice", "-password", "pw1234")
	assert.Contains(t, out, "Logged in as alice")

	out = mustRun(t, "whoami")
	assert.Contains(t, out, "alice (id 1)")

	mustRun(t, "logout")
	_, err = runCmd(t, "", "whoami")
	assert.ErrorContains(t, err, "not logged in")
}

func TestRun_InteractiveRegister(t *testing.T) {
	setupEnv(t)

	out, err := runCmd(t, "bob\nsecret\nsecret\n", "register")
	require.NoError(t, err)
	assert.Contains(t, out, "Username: ")
	assert.Contains(t, out, "Confirm password: ")
	assert.Contains(t, out, "User bob created successfully")

	_, err = runCmd(t, "carol\nsecret\nsecreT\n", "register")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRun_ExpenseFlow(t *testing.T) {
	setupEnv(t)
	mustRun(t, "register", "-user", "alice", "-password", "pw1234")
	mustRun(t, "login", "-user", "alice", "-password", "pw1234")

	out := mustRun(t, "category", "add", "Food")
	assert.Contains(t, out, `Category "Food" created with ID 1`)

	mustRun(t, "expense", "add", "-amount", "12.50", "-desc", "lunch", "-category", "1", "-date", "2024-03-05")
	mustRun(t, "expense", "add", "-amount", "7,25", "-desc", "coffee", "-category", "1", "-date", "2024-03-20", "-start", "09:00", "-end", "09:15")

	out = mustRun(t, "expense", "list", "-month", "2024-03")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "coffee", "newest first")
	assert.Contains(t, lines[2], "lunch")

	out = mustRun(t, "expense", "show", "2")
	assert.Contains(t, out, "09:00-09:15")
	assert.Contains(t, out, "Food (1)")

	mustRun(t, "goal", "set", "-month", "2024-03", "-min", "10", "-max", "15")
	out = mustRun(t, "summary", "-month", "2024-03")
	assert.Contains(t, out, "19.75")
	assert.Contains(t, out, string(core.GoalStatusOverMaximum))

	mustRun(t, "expense", "edit", "1", "-amount", "2.50")
	out = mustRun(t, "summary", "-month", "2024-03")
	assert.Contains(t, out, "9.75")
	assert.Contains(t, out, string(core.GoalStatusUnderMinimum))

	out = mustRun(t, "watch", "-month", "2024-03", "-count", "1")
	assert.Contains(t, out, "Summary for 2024-03")

	mustRun(t, "category", "rm", "1")
	out = mustRun(t, "expense", "list", "-month", "2024-03")
	assert.Contains(t, out, "No expenses")
}

func TestRun_OtherUsersDataIsHidden(t *testing.T) {
	setupEnv(t)
	mustRun(t, "register", "-user", "alice", "-password", "pw1234")
	mustRun(t, "register", "-user", "bob", "-password", "pw1234")

	mustRun(t, "login", "-user", "alice", "-password", "pw1234")
	mustRun(t, "category", "add", "Food")
	mustRun(t, "expense", "add", "-amount", "1", "-desc", "x", "-category", "1", "-date", "2024-03-05")

	mustRun(t, "login", "-user", "bob", "-password", "pw1234")
	_, err := runCmd(t, "", "expense", "show", "1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = runCmd(t, "", "category", "rm", "1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = runCmd(t, "", "expense", "add", "-amount", "1", "-desc", "x", "-category", "1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRun_ValidationErrors(t *testing.T) {
	setupEnv(t)
	mustRun(t, "register", "-user", "alice", "-password", "pw1234")
	mustRun(t, "login", "-user", "alice", "-password", "pw1234")
	mustRun(t, "category", "add", "Food")

	_, err := runCmd(t, "", "expense", "add", "-amount", "0", "-desc", "x", "-category", "1")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = runCmd(t, "", "expense", "add", "-amount", "3", "-desc", "x", "-category", "1", "-date", "05/03/2024")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = runCmd(t, "", "goal", "set", "-min", "50", "-max", "10")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = runCmd(t, "", "expense", "list", "-from", "2024-03-10")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRun_AdminDeleteUser(t *testing.T) {
	setupEnv(t)
	mustRun(t, "register", "-user", "alice", "-password", "pw1234")
	mustRun(t, "login", "-user", "alice", "-password", "pw1234")

	_, err := runCmd(t, "", "admin", "deluser", "1")
	assert.ErrorContains(t, err, "without -yes")

	out := mustRun(t, "admin", "deluser", "1", "-yes")
	assert.Contains(t, out, "User 1 and all their data deleted")

	_, err = runCmd(t, "", "whoami")
	assert.ErrorContains(t, err, "account no longer exists")

	_, err = runCmd(t, "", "admin", "deluser", "1", "-yes")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Error: boom", formatError(errors.New("boom")))
	assert.Equal(t, "Error [not_found]: not found", formatError(core.ErrNotFound))
}
