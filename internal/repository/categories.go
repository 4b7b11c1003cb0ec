package repository

import (
	"context"
	"fmt"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/live"
	"spendwise/internal/log"
	"spendwise/internal/storage"
)

type Categories struct {
	base
}

func categoryFields(c core.Category) log.LogFields {
	return log.NewFields().WithUser(c.UserID).With(log.FieldCategoryID, c.ID)
}

// Add stores a new category and returns its id. Names are not unique.
func (r *Categories) Add(ctx context.Context, c core.Category) (int64, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return 0, r.fail(ctx, log.OpCreate, categoryFields(c), err)
	}

	id, err := r.q.InsertCategory(ctx, storage.InsertCategoryParams{Name: c.Name, UserID: c.UserID})
	if err != nil {
		return 0, r.fail(ctx, log.OpCreate, categoryFields(c), err)
	}

	r.notify(c.UserID, live.TableCategories)
	return id, nil
}

// Update replaces the stored row; core.ErrNotFound when the id is unknown.
func (r *Categories) Update(ctx context.Context, c core.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return r.fail(ctx, log.OpUpdate, categoryFields(c), err)
	}

	prev, err := r.q.GetCategory(ctx, c.ID)
	if err != nil {
		return r.fail(ctx, log.OpUpdate, categoryFields(c), err)
	}

	err = r.q.UpdateCategory(ctx, storage.Category{CategoryID: c.ID, Name: c.Name, UserID: c.UserID})
	if err != nil {
		return r.fail(ctx, log.OpUpdate, categoryFields(c), err)
	}

	r.notify(c.UserID, live.TableCategories)
	if prev.UserID != c.UserID {
		r.notify(prev.UserID, live.TableCategories)
	}
	return nil
}

// Delete removes the category together with all of its expenses.
func (r *Categories) Delete(ctx context.Context, categoryID int64) error {
	fields := log.NewFields().With(log.FieldCategoryID, categoryID)

	prev, err := r.q.GetCategory(ctx, categoryID)
	if err != nil {
		return r.fail(ctx, log.OpDelete, fields, err)
	}
	if err := r.q.DeleteCategory(ctx, categoryID); err != nil {
		return r.fail(ctx, log.OpDelete, fields, err)
	}

	r.notify(prev.UserID, live.TableCategories, live.TableExpenses)
	r.logger.InfoContext(ctx, "Category deleted",
		log.FieldCategoryID, categoryID, log.FieldUserID, prev.UserID)
	return nil
}

func (r *Categories) Get(ctx context.Context, categoryID int64) (core.Category, error) {
	row, err := r.q.GetCategory(ctx, categoryID)
	if err != nil {
		return core.Category{}, r.fail(ctx, log.OpRead, log.NewFields().With(log.FieldCategoryID, categoryID), err)
	}
	return toCategory(row), nil
}

func (r *Categories) List(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.q.ListCategories(ctx, userID)
	if err != nil {
		return nil, r.fail(ctx, log.OpList, log.NewFields().WithUser(userID), err)
	}
	return toCategories(rows), nil
}

// Watch pushes the user's category list after every change to it.
func (r *Categories) Watch(ctx context.Context, userID int64) *live.Subscription[[]core.Category] {
	return live.Watch(ctx, r.hub, fmt.Sprintf("categories:%d", userID),
		[]live.Topic{{Table: live.TableCategories, UserID: userID}},
		func(ctx context.Context) ([]core.Category, error) {
			return r.List(ctx, userID)
		})
}
