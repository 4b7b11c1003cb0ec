package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Raw fault classes raised by the access objects. The repository layer
// translates them; nothing above it should see these.
var (
	ErrNoRows     = errors.New("no rows")
	ErrConstraint = errors.New("constraint violation")
	ErrEngine     = errors.New("engine failure")
)

// Error carries the failing operation, its class and the driver error.
type Error struct {
	Op   string
	Kind error
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsForeignKey reports a foreign key breach.
func (e *Error) IsForeignKey() bool {
	return e.Code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
		(e.Err != nil && strings.Contains(e.Err.Error(), "FOREIGN KEY constraint failed"))
}

// IsUnique reports a unique or primary key breach.
func (e *Error) IsUnique() bool {
	return e.Code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		e.Code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		(e.Err != nil && strings.Contains(e.Err.Error(), "UNIQUE constraint failed"))
}

func noRows(op string) error {
	return &Error{Op: op, Kind: ErrNoRows}
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Op: op, Kind: ErrNoRows, Err: err}
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code&0xff == sqlite3.SQLITE_CONSTRAINT {
			return &Error{Op: op, Kind: ErrConstraint, Code: code, Err: err}
		}
		return &Error{Op: op, Kind: ErrEngine, Code: code, Err: err}
	}
	return &Error{Op: op, Kind: ErrEngine, Err: err}
}

// AsError extracts the storage error from err.
func AsError(err error) (*Error, bool) {
	var storageErr *Error
	ok := errors.As(err, &storageErr)
	return storageErr, ok
}
