package storage

import (
	"context"
	"fmt"

	"homeledger/internal/core"
)

const budgetColumns = `b.id, b.month, b.owner_id, b.category_id, b.planned_amount, b.created_at, b.updated_at`

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO budgets (id, month, owner_id, category_id, planned_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, string(b.Month), b.OwnerID, b.CategoryID, b.PlannedAmount, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create budget: %w", classify("budgets", err))
	}
	return nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO budgets (id, month, owner_id, category_id, planned_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (month, owner_id, category_id) DO UPDATE SET
			planned_amount = excluded.planned_amount,
			updated_at = excluded.updated_at`,
		b.ID, string(b.Month), b.OwnerID, b.CategoryID, b.PlannedAmount, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert budget: %w", classify("budgets", err))
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, month core.Month, ownerID, categoryID string) (core.Budget, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets b
		WHERE b.month = ? AND b.owner_id = ? AND b.category_id = ?`,
		string(month), ownerID, categoryID)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", month, classify("budgets", err))
	}
	return b, nil
}

// ListBudgets returns the month's planned amounts by owner then category name.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, month core.Month) ([]core.Budget, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets b
		JOIN owners o ON o.id = b.owner_id
		JOIN categories c ON c.id = b.category_id
		WHERE b.month = ?
		ORDER BY o.sort_order, c.name`, string(month))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBudget(s rowScanner) (core.Budget, error) {
	var (
		b                core.Budget
		month            string
		created, updated string
	)
	if err := s.Scan(&b.ID, &month, &b.OwnerID, &b.CategoryID, &b.PlannedAmount, &created, &updated); err != nil {
		return core.Budget{}, err
	}
	b.Month = core.Month(month)
	var err error
	if b.CreatedAt, b.UpdatedAt, err = auditTimes(created, updated); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}
