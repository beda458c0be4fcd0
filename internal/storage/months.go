package storage

import (
	"context"
	"fmt"

	"homeledger/internal/core"
)

// KnownMonths returns every month that carries ledger data, newest first.
// A limit of zero or less returns all of them.
func (r *SQLiteRepository) KnownMonths(ctx context.Context, limit int) ([]core.Month, error) {
	query := `
		SELECT month FROM (
			SELECT DISTINCT substr(txn_date, 1, 7) AS month FROM transactions WHERE deleted_at IS NULL
			UNION SELECT month FROM budgets
			UNION SELECT month FROM bill_payments
			UNION SELECT month FROM account_snapshots
			UNION SELECT month FROM income
			UNION SELECT month FROM month_closings
		)
		ORDER BY month DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list known months: %w", err)
	}
	defer rows.Close()

	var out []core.Month
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		out = append(out, core.Month(m))
	}
	return out, rows.Err()
}
