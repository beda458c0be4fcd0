package storage

import (
	"context"
	"fmt"

	"homeledger/internal/core"
)

const snapshotColumns = `id, account_id, month, balance, payment, created_at, updated_at`

// CreateSnapshot inserts a snapshot. A second snapshot for the same account
// and month fails with core.ErrUniqueViolation.
func (r *SQLiteRepository) CreateSnapshot(ctx context.Context, s core.AccountSnapshot) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO account_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.AccountID, string(s.Month), s.Balance, s.Payment, formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create snapshot: %w", classify("account_snapshots", err))
	}
	return nil
}

// UpsertSnapshot replaces balance and payment for an existing account/month
// pair and keeps the original id and created_at.
func (r *SQLiteRepository) UpsertSnapshot(ctx context.Context, s core.AccountSnapshot) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO account_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, month) DO UPDATE SET
			balance = excluded.balance,
			payment = excluded.payment,
			updated_at = excluded.updated_at`,
		s.ID, s.AccountID, string(s.Month), s.Balance, s.Payment, formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", classify("account_snapshots", err))
	}
	return nil
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, accountID string, month core.Month) (core.AccountSnapshot, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM account_snapshots
		WHERE account_id = ? AND month = ?`, accountID, string(month))
	s, err := scanSnapshot(row)
	if err != nil {
		return core.AccountSnapshot{}, fmt.Errorf("get snapshot %s/%s: %w", accountID, month, classify("account_snapshots", err))
	}
	return s, nil
}

// ListSnapshots returns an account's snapshots, newest month first.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, accountID string) ([]core.AccountSnapshot, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+snapshotColumns+` FROM account_snapshots
		WHERE account_id = ?
		ORDER BY month DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.AccountSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSnapshot(sc rowScanner) (core.AccountSnapshot, error) {
	var (
		s                core.AccountSnapshot
		month            string
		created, updated string
	)
	if err := sc.Scan(&s.ID, &s.AccountID, &month, &s.Balance, &s.Payment, &created, &updated); err != nil {
		return core.AccountSnapshot{}, err
	}
	s.Month = core.Month(month)
	var err error
	if s.CreatedAt, s.UpdatedAt, err = auditTimes(created, updated); err != nil {
		return core.AccountSnapshot{}, err
	}
	return s, nil
}
