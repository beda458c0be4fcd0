package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"homeledger/internal/core"
)

const closingColumns = `id, month, closed_at, note, created_at, updated_at`

// CreateClosing records a month as closed. Closing a month twice fails with
// core.ErrUniqueViolation.
func (r *SQLiteRepository) CreateClosing(ctx context.Context, c core.MonthClosing) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO month_closings (`+closingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.Month), formatTime(c.ClosedAt), nullString(c.Note), formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create month closing: %w", classify("month_closings", err))
	}
	return nil
}

func (r *SQLiteRepository) GetClosing(ctx context.Context, month core.Month) (core.MonthClosing, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+closingColumns+` FROM month_closings WHERE month = ?`, string(month))
	c, err := scanClosing(row)
	if err != nil {
		return core.MonthClosing{}, fmt.Errorf("get month closing %s: %w", month, classify("month_closings", err))
	}
	return c, nil
}

func (r *SQLiteRepository) IsClosed(ctx context.Context, month core.Month) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM month_closings WHERE month = ?`, string(month)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check month closing %s: %w", month, err)
	}
	return true, nil
}

// ListClosings returns closed months, newest first.
func (r *SQLiteRepository) ListClosings(ctx context.Context) ([]core.MonthClosing, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+closingColumns+` FROM month_closings ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list month closings: %w", err)
	}
	defer rows.Close()

	var out []core.MonthClosing
	for rows.Next() {
		c, err := scanClosing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan month closing: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClosing(s rowScanner) (core.MonthClosing, error) {
	var (
		c                core.MonthClosing
		month, closedAt  string
		note             sql.NullString
		created, updated string
	)
	if err := s.Scan(&c.ID, &month, &closedAt, &note, &created, &updated); err != nil {
		return core.MonthClosing{}, err
	}
	c.Month = core.Month(month)
	c.Note = note.String
	var err error
	if c.ClosedAt, err = parseTime(closedAt); err != nil {
		return core.MonthClosing{}, err
	}
	if c.CreatedAt, c.UpdatedAt, err = auditTimes(created, updated); err != nil {
		return core.MonthClosing{}, err
	}
	return c, nil
}
