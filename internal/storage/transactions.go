package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"homeledger/internal/core"
)

const transactionColumns = `t.id, t.txn_date, t.owner_id, t.category_id, t.description, t.amount, t.created_at, t.updated_at, t.deleted_at`

// TransactionFilter narrows ListTransactions. Zero values match everything
// except soft-deleted rows.
type TransactionFilter struct {
	OwnerID        string
	Month          core.Month
	IncludeDeleted bool
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	if err := r.insertTransaction(ctx, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// CreateTransactions inserts all rows in one database transaction. Either
// every row is stored or none is.
func (r *SQLiteRepository) CreateTransactions(ctx context.Context, txns []core.Transaction) error {
	return r.InTx(ctx, func(tx *SQLiteRepository) error {
		for i, t := range txns {
			if err := tx.insertTransaction(ctx, t); err != nil {
				return fmt.Errorf("create transaction %d of %d: %w", i+1, len(txns), err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) insertTransaction(ctx context.Context, t core.Transaction) error {
	var deleted sql.NullString
	if t.DeletedAt != nil {
		deleted = nullString(formatTime(*t.DeletedAt))
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO transactions (id, txn_date, owner_id, category_id, description, amount, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.String(), t.OwnerID, t.CategoryID, t.Description, t.Amount,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), deleted)
	return classify("transactions", err)
}

// GetTransaction returns the transaction whether or not it was soft deleted.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions t WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, classify("transactions", err))
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeDeleted {
		where = append(where, "t.deleted_at IS NULL")
	}
	if f.OwnerID != "" {
		where = append(where, "t.owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Month != "" {
		where = append(where, "substr(t.txn_date, 1, 7) = ?")
		args = append(args, string(f.Month))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions t`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY t.txn_date DESC, t.created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SoftDeleteTransaction stamps deleted_at. Deleting an already deleted
// transaction reports core.ErrNotFound.
func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE transactions SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		formatTime(at), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, classify("transactions", err))
	}
	return expectAffected("transactions", res)
}

// ExportRows returns active transactions with owner and category names in
// ascending date order. An empty month exports everything.
func (r *SQLiteRepository) ExportRows(ctx context.Context, month core.Month) ([]core.LedgerRow, error) {
	query := `
		SELECT t.txn_date, o.display_name, c.name, t.amount, t.description
		FROM transactions t
		JOIN owners o ON o.id = t.owner_id
		JOIN categories c ON c.id = t.category_id
		WHERE t.deleted_at IS NULL`
	var args []any
	if month != "" {
		query += ` AND substr(t.txn_date, 1, 7) = ?`
		args = append(args, string(month))
	}
	query += ` ORDER BY t.txn_date ASC, t.created_at ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerRow
	for rows.Next() {
		var lr core.LedgerRow
		if err := rows.Scan(&lr.Date, &lr.Owner, &lr.Category, &lr.Amount, &lr.Description); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                core.Transaction
		date             string
		created, updated string
		deleted          sql.NullString
	)
	if err := s.Scan(&t.ID, &date, &t.OwnerID, &t.CategoryID, &t.Description, &t.Amount, &created, &updated, &deleted); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date %q: %w", t.ID, date, err)
	}
	t.Date = d
	if t.CreatedAt, t.UpdatedAt, err = auditTimes(created, updated); err != nil {
		return core.Transaction{}, err
	}
	if deleted.Valid {
		at, err := parseTime(deleted.String)
		if err != nil {
			return core.Transaction{}, err
		}
		t.DeletedAt = &at
	}
	return t, nil
}
