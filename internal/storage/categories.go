package storage

import "context"

type InsertCategoryParams struct {
	Name   string
	UserID int64
}

func (q *Queries) InsertCategory(ctx context.Context, arg InsertCategoryParams) (int64, error) {
	return q.insert(ctx, "insert category",
		`INSERT INTO categories (name, user_id) VALUES (?, ?)`,
		arg.Name, arg.UserID)
}

// UpdateCategory replaces the whole row identified by CategoryID.
func (q *Queries) UpdateCategory(ctx context.Context, c Category) error {
	return q.execOne(ctx, "update category",
		`UPDATE categories SET name = ?, user_id = ? WHERE category_id = ?`,
		c.Name, c.UserID, c.CategoryID)
}

// DeleteCategory removes the category and cascades to its expenses.
func (q *Queries) DeleteCategory(ctx context.Context, categoryID int64) error {
	return q.execOne(ctx, "delete category", `DELETE FROM categories WHERE category_id = ?`, categoryID)
}

func (q *Queries) GetCategory(ctx context.Context, categoryID int64) (Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT category_id, name, user_id FROM categories WHERE category_id = ?`, categoryID)
	var c Category
	if err := row.Scan(&c.CategoryID, &c.Name, &c.UserID); err != nil {
		return Category{}, classify("get category", err)
	}
	return c, nil
}

// ListCategories returns the user's categories. Callers must not rely on the
// order; rows come back by id only to keep output stable.
func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT category_id, name, user_id FROM categories WHERE user_id = ? ORDER BY category_id`, userID)
	if err != nil {
		return nil, classify("list categories", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.CategoryID, &c.Name, &c.UserID); err != nil {
			return nil, classify("list categories", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list categories", err)
	}
	return categories, nil
}
