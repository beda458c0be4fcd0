package storage

import (
	"context"
	"fmt"

	"homeledger/internal/core"
)

const incomeColumns = `i.id, i.owner_id, i.month, i.amount, i.created_at, i.updated_at`

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO income (id, owner_id, month, amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.OwnerID, string(in.Month), in.Amount, formatTime(in.CreatedAt), formatTime(in.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create income: %w", classify("income", err))
	}
	return nil
}

func (r *SQLiteRepository) UpsertIncome(ctx context.Context, in core.Income) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO income (id, owner_id, month, amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, month) DO UPDATE SET
			amount = excluded.amount,
			updated_at = excluded.updated_at`,
		in.ID, in.OwnerID, string(in.Month), in.Amount, formatTime(in.CreatedAt), formatTime(in.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert income: %w", classify("income", err))
	}
	return nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, ownerID string, month core.Month) (core.Income, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+incomeColumns+` FROM income i
		WHERE i.owner_id = ? AND i.month = ?`, ownerID, string(month))
	in, err := scanIncome(row)
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %s/%s: %w", ownerID, month, classify("income", err))
	}
	return in, nil
}

// ListIncome returns the month's income entries in owner order.
func (r *SQLiteRepository) ListIncome(ctx context.Context, month core.Month) ([]core.Income, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+incomeColumns+`
		FROM income i
		JOIN owners o ON o.id = i.owner_id
		WHERE i.month = ?
		ORDER BY o.sort_order`, string(month))
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func scanIncome(s rowScanner) (core.Income, error) {
	var (
		in               core.Income
		month            string
		created, updated string
	)
	if err := s.Scan(&in.ID, &in.OwnerID, &month, &in.Amount, &created, &updated); err != nil {
		return core.Income{}, err
	}
	in.Month = core.Month(month)
	var err error
	if in.CreatedAt, in.UpdatedAt, err = auditTimes(created, updated); err != nil {
		return core.Income{}, err
	}
	return in, nil
}
