package storage

import "context"

const insertUser = `
INSERT INTO users (username, password_hash, created_at)
VALUES (?, ?, ?)`

type InsertUserParams struct {
	Username     string
	PasswordHash string
	CreatedAt    int64
}

func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) (int64, error) {
	return q.insert(ctx, "insert user", insertUser, arg.Username, arg.PasswordHash, arg.CreatedAt)
}

const selectUser = `SELECT user_id, username, password_hash, created_at FROM users`

func (q *Queries) GetUser(ctx context.Context, userID int64) (User, error) {
	row := q.db.QueryRowContext(ctx, selectUser+` WHERE user_id = ?`, userID)
	var u User
	if err := row.Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return User{}, classify("get user", err)
	}
	return u, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, selectUser+` WHERE username = ?`, username)
	var u User
	if err := row.Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return User{}, classify("get user by username", err)
	}
	return u, nil
}

func (q *Queries) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return false, classify("user exists", err)
	}
	return exists, nil
}

// DeleteUser removes a user and, through the schema, everything they own.
func (q *Queries) DeleteUser(ctx context.Context, userID int64) error {
	return q.execOne(ctx, "delete user", `DELETE FROM users WHERE user_id = ?`, userID)
}

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, classify("count users", err)
	}
	return n, nil
}
