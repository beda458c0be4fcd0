package storage

import (
	"context"
	"database/sql"
	"fmt"

	"homeledger/internal/core"
)

const accountColumns = `a.id, a.owner_id, a.name, a.type, a.apr, a.credit_limit, a.start_balance, a.active, a.created_at, a.updated_at`

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (id, owner_id, name, type, apr, credit_limit, start_balance, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Name, string(a.Type), nullFloat(a.APR), nullFloat(a.CreditLimit), nullFloat(a.StartBalance),
		boolToInt(a.Active), formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create account: %w", classify("accounts", err))
	}
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts a WHERE a.id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, classify("accounts", err))
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, activeOnly bool) ([]core.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts a
		JOIN owners o ON o.id = a.owner_id`
	if activeOnly {
		query += ` WHERE a.active = 1`
	}
	query += ` ORDER BY o.sort_order, a.type, a.name`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET owner_id = ?, name = ?, type = ?, apr = ?, credit_limit = ?, start_balance = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		a.OwnerID, a.Name, string(a.Type), nullFloat(a.APR), nullFloat(a.CreditLimit), nullFloat(a.StartBalance),
		boolToInt(a.Active), formatTime(a.UpdatedAt), a.ID)
	if err != nil {
		return fmt.Errorf("update account %s: %w", a.ID, classify("accounts", err))
	}
	return expectAffected("accounts", res)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, classify("accounts", err))
	}
	return expectAffected("accounts", res)
}

func scanAccount(s rowScanner) (core.Account, error) {
	var (
		a                        core.Account
		typ                      string
		apr, limit, startBalance sql.NullFloat64
		active                   int
		created, updated         string
	)
	if err := s.Scan(&a.ID, &a.OwnerID, &a.Name, &typ, &apr, &limit, &startBalance, &active, &created, &updated); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.APR = floatPtr(apr)
	a.CreditLimit = floatPtr(limit)
	a.StartBalance = floatPtr(startBalance)
	a.Active = active != 0
	var err error
	if a.CreatedAt, a.UpdatedAt, err = auditTimes(created, updated); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

// ListAccountPositions returns every active account with its snapshot for
// month and the latest earlier snapshot.
func (r *SQLiteRepository) ListAccountPositions(ctx context.Context, month core.Month) ([]core.AccountPosition, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+accountColumns+`, o.display_name,
		       s.month, s.balance, s.payment,
		       p.month, p.balance, p.payment
		FROM accounts a
		JOIN owners o ON o.id = a.owner_id
		LEFT JOIN account_snapshots s ON s.account_id = a.id AND s.month = ?
		LEFT JOIN account_snapshots p ON p.account_id = a.id AND p.month = (
			SELECT month FROM account_snapshots
			WHERE account_id = a.id AND month < ?
			ORDER BY month DESC LIMIT 1
		)
		WHERE a.active = 1
		ORDER BY o.sort_order, a.type, a.name`, string(month), string(month))
	if err != nil {
		return nil, fmt.Errorf("list account positions: %w", err)
	}
	defer rows.Close()

	var out []core.AccountPosition
	for rows.Next() {
		var (
			pos                      core.AccountPosition
			typ                      string
			apr, limit, startBalance sql.NullFloat64
			active                   int
			created, updated         string
			curMonth, prevMonth      sql.NullString
			curBal, curPay           sql.NullFloat64
			prevBal, prevPay         sql.NullFloat64
		)
		a := &pos.Account
		err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &typ, &apr, &limit, &startBalance, &active, &created, &updated,
			&pos.OwnerName, &curMonth, &curBal, &curPay, &prevMonth, &prevBal, &prevPay)
		if err != nil {
			return nil, fmt.Errorf("scan account position: %w", err)
		}
		a.Type = core.AccountType(typ)
		a.APR = floatPtr(apr)
		a.CreditLimit = floatPtr(limit)
		a.StartBalance = floatPtr(startBalance)
		a.Active = active != 0
		if a.CreatedAt, a.UpdatedAt, err = auditTimes(created, updated); err != nil {
			return nil, err
		}
		pos.Current = positionSnapshot(a.ID, curMonth, curBal, curPay)
		pos.Previous = positionSnapshot(a.ID, prevMonth, prevBal, prevPay)
		out = append(out, pos)
	}
	return out, rows.Err()
}

func positionSnapshot(accountID string, month sql.NullString, balance, payment sql.NullFloat64) *core.AccountSnapshot {
	if !month.Valid {
		return nil
	}
	return &core.AccountSnapshot{
		AccountID: accountID,
		Month:     core.Month(month.String),
		Balance:   balance.Float64,
		Payment:   payment.Float64,
	}
}
