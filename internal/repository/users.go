package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/live"
	"spendwise/internal/log"
	"spendwise/internal/storage"
)

type Users struct {
	base
	hasher *auth.Hasher
}

// Register creates an account. An existing username fails with
// core.ErrUsernameTaken before any insert is attempted.
func (r *Users) Register(ctx context.Context, username, password string) (core.User, error) {
	fields := log.NewFields().With(log.FieldUsername, username)
	if strings.TrimSpace(username) == "" || password == "" {
		return core.User{}, r.fail(ctx, log.OpRegister, fields,
			core.NewValidationError("username", "username and password are required"))
	}

	exists, err := r.q.UserExists(ctx, username)
	if err != nil {
		return core.User{}, r.fail(ctx, log.OpRegister, fields, err)
	}
	if exists {
		return core.User{}, r.fail(ctx, log.OpRegister, fields,
			fmt.Errorf("%w: %s", core.ErrUsernameTaken, username))
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return core.User{}, r.fail(ctx, log.OpRegister, fields,
			fmt.Errorf("%w: %s", core.ErrInvalidInput, err.Error()))
	}

	now := time.Now().UTC()
	id, err := r.q.InsertUser(ctx, storage.InsertUserParams{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now.UnixMilli(),
	})
	if isUniqueViolation(err) {
		// Lost a race with another registration of the same name.
		return core.User{}, r.fail(ctx, log.OpRegister, fields,
			fmt.Errorf("%w: %s", core.ErrUsernameTaken, username))
	}
	if err != nil {
		return core.User{}, r.fail(ctx, log.OpRegister, fields, err)
	}

	r.notify(id, live.TableUsers)
	r.logger.InfoContext(ctx, "User registered", log.FieldUserID, id, log.FieldUsername, username)

	return core.User{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.UnixMilli(now.UnixMilli()).UTC(),
	}, nil
}

// Login returns the user matching the pair. Unknown usernames and wrong
// passwords both fail with core.ErrInvalidCredentials.
func (r *Users) Login(ctx context.Context, username, password string) (core.User, error) {
	fields := log.NewFields().With(log.FieldUsername, username)

	row, err := r.q.GetUserByUsername(ctx, username)
	if isNoRows(err) {
		r.hasher.Burn(password)
		return core.User{}, r.fail(ctx, log.OpLogin, fields, core.ErrInvalidCredentials)
	}
	if err != nil {
		return core.User{}, r.fail(ctx, log.OpLogin, fields, err)
	}

	if err := r.hasher.Check(row.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrMismatch) {
			r.logger.ErrorContext(ctx, "Stored password hash is unreadable",
				log.FieldUserID, row.UserID, log.FieldError, err)
		}
		return core.User{}, r.fail(ctx, log.OpLogin, fields, core.ErrInvalidCredentials)
	}

	return toUser(row), nil
}

func (r *Users) Get(ctx context.Context, userID int64) (core.User, error) {
	row, err := r.q.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, r.fail(ctx, log.OpRead, log.NewFields().WithUser(userID), err)
	}
	return toUser(row), nil
}

// Delete removes the account and everything it owns. It is an
// administrative operation; no user-facing flow calls it.
func (r *Users) Delete(ctx context.Context, userID int64) error {
	if err := r.q.DeleteUser(ctx, userID); err != nil {
		return r.fail(ctx, log.OpDelete, log.NewFields().WithUser(userID), err)
	}
	r.notify(userID, live.AllTables...)
	r.logger.InfoContext(ctx, "User deleted", log.FieldUserID, userID)
	return nil
}
