package storage

import (
	"context"
	"fmt"
	"strings"

	"homeledger/internal/core"
)

const categoryColumns = `id, name, active, created_at, updated_at`

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, boolToInt(c.Active), formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create category: %w", classify("categories", err))
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, classify("categories", err))
	}
	return c, nil
}

// FindCategoryByName matches the category name ignoring case.
func (r *SQLiteRepository) FindCategoryByName(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	row := r.q.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE lower(name) = lower(?)
		LIMIT 1`, name)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("find category %q: %w", name, classify("categories", err))
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, activeOnly bool) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE categories SET name = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, boolToInt(c.Active), formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, classify("categories", err))
	}
	return expectAffected("categories", res)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, classify("categories", err))
	}
	return expectAffected("categories", res)
}

func scanCategory(s rowScanner) (core.Category, error) {
	var (
		c                core.Category
		active           int
		created, updated string
	)
	if err := s.Scan(&c.ID, &c.Name, &active, &created, &updated); err != nil {
		return core.Category{}, err
	}
	c.Active = active != 0
	var err error
	if c.CreatedAt, c.UpdatedAt, err = auditTimes(created, updated); err != nil {
		return core.Category{}, err
	}
	return c, nil
}
