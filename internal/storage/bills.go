package storage

import (
	"context"
	"database/sql"
	"fmt"

	"homeledger/internal/core"
)

const billColumns = `b.id, b.owner_id, b.name, b.due_day, b.default_amount, b.active, b.created_at, b.updated_at`

func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO bills (id, owner_id, name, due_day, default_amount, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Name, nullInt(b.DueDay), nullFloat(b.DefaultAmount), boolToInt(b.Active),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create bill: %w", classify("bills", err))
	}
	return nil
}

func (r *SQLiteRepository) GetBill(ctx context.Context, id string) (core.Bill, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills b WHERE b.id = ?`, id)
	b, err := scanBill(row)
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill %s: %w", id, classify("bills", err))
	}
	return b, nil
}

// ListBills orders by owner, then due day with undated bills last, then name.
func (r *SQLiteRepository) ListBills(ctx context.Context, activeOnly bool) ([]core.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills b
		JOIN owners o ON o.id = b.owner_id`
	if activeOnly {
		query += ` WHERE b.active = 1`
	}
	query += ` ORDER BY o.sort_order, b.due_day IS NULL, b.due_day, b.name`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateBill(ctx context.Context, b core.Bill) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE bills
		SET owner_id = ?, name = ?, due_day = ?, default_amount = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		b.OwnerID, b.Name, nullInt(b.DueDay), nullFloat(b.DefaultAmount), boolToInt(b.Active),
		formatTime(b.UpdatedAt), b.ID)
	if err != nil {
		return fmt.Errorf("update bill %s: %w", b.ID, classify("bills", err))
	}
	return expectAffected("bills", res)
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bill %s: %w", id, classify("bills", err))
	}
	return expectAffected("bills", res)
}

func scanBill(s rowScanner) (core.Bill, error) {
	var (
		b                core.Bill
		dueDay           sql.NullInt64
		amount           sql.NullFloat64
		active           int
		created, updated string
	)
	if err := s.Scan(&b.ID, &b.OwnerID, &b.Name, &dueDay, &amount, &active, &created, &updated); err != nil {
		return core.Bill{}, err
	}
	b.DueDay = intPtr(dueDay)
	b.DefaultAmount = floatPtr(amount)
	b.Active = active != 0
	var err error
	if b.CreatedAt, b.UpdatedAt, err = auditTimes(created, updated); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}
