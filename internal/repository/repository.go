// Package repository is the translation boundary between the access objects
// and everything above them. Every method returns either a value or one of
// the core failure kinds; raw storage faults never cross it.
package repository

import (
	"context"
	"errors"
	"fmt"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/live"
	"spendwise/internal/log"
	"spendwise/internal/storage"
)

// Repositories bundles one repository per entity over a single store.
type Repositories struct {
	Users      *Users
	Categories *Categories
	Expenses   *Expenses
	Goals      *Goals
}

// New wires the repositories to the store's access objects. A nil hub gets
// a private one, so Watch works but nothing outside sees the notifications.
func New(store *storage.Store, hub *live.Hub, hasher *auth.Hasher, logger *log.Logger) *Repositories {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if hub == nil {
		hub = live.NewHub(logger)
	}
	if hasher == nil {
		hasher = auth.NewHasher(0)
	}
	b := base{
		q:      store.Queries(),
		hub:    hub,
		logger: logger.WithComponent(log.ComponentRepository),
	}
	return &Repositories{
		Users:      &Users{base: b, hasher: hasher},
		Categories: &Categories{base: b},
		Expenses:   &Expenses{base: b},
		Goals:      &Goals{base: b},
	}
}

type base struct {
	q      *storage.Queries
	hub    *live.Hub
	logger *log.Logger
}

func (b base) notify(userID int64, tables ...live.Table) {
	b.hub.Notify(userID, tables...)
}

// fail translates err and logs it once.
func (b base) fail(ctx context.Context, op string, fields log.LogFields, err error) error {
	translated := translate(err)
	kind := core.KindOf(translated)

	fields = fields.WithOperation(op).WithErrorKind(string(kind)).WithError(err)
	switch kind {
	case core.KindStorageUnavailable, core.KindUnknown:
		b.logger.ErrorContext(ctx, "Repository operation failed", fields.ToSlice()...)
	default:
		b.logger.InfoContext(ctx, "Repository operation rejected", fields.ToSlice()...)
	}
	return translated
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if core.KindOf(err) != core.KindUnknown {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}

	storageErr, ok := storage.AsError(err)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrStorageUnavailable, err.Error())
	}
	switch {
	case errors.Is(storageErr.Kind, storage.ErrNoRows):
		return fmt.Errorf("%w: %s", core.ErrNotFound, storageErr.Op)
	case errors.Is(storageErr.Kind, storage.ErrConstraint):
		return fmt.Errorf("%w: %s: %s", core.ErrIntegrityViolation, storageErr.Op, constraintName(storageErr))
	default:
		// The driver message is kept as text only; its type stays below this layer.
		return fmt.Errorf("%w: %s", core.ErrStorageUnavailable, storageErr.Error())
	}
}

func constraintName(e *storage.Error) string {
	switch {
	case e.IsForeignKey():
		return "foreign key"
	case e.IsUnique():
		return "uniqueness"
	default:
		return "constraint"
	}
}

func isUniqueViolation(err error) bool {
	storageErr, ok := storage.AsError(err)
	return ok && errors.Is(storageErr.Kind, storage.ErrConstraint) && storageErr.IsUnique()
}

func isNoRows(err error) bool {
	return errors.Is(err, storage.ErrNoRows)
}
