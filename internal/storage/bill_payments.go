package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"homeledger/internal/core"
)

const billPaymentColumns = `p.id, p.bill_id, p.month, p.paid, p.paid_amount, p.paid_date, p.note, p.created_at, p.updated_at`

// CreateBillPayment inserts a payment row. A second row for the same bill
// and month fails with core.ErrUniqueViolation.
func (r *SQLiteRepository) CreateBillPayment(ctx context.Context, p core.BillPayment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO bill_payments (id, bill_id, month, paid, paid_amount, paid_date, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BillID, string(p.Month), boolToInt(p.Paid), nullFloat(p.PaidAmount),
		nullString(p.PaidDate.String()), nullString(p.Note), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create bill payment: %w", classify("bill_payments", err))
	}
	return nil
}

// EnsureBillPayments inserts an unpaid row for every active bill that has
// none for the month. It returns the number of rows created.
func (r *SQLiteRepository) EnsureBillPayments(ctx context.Context, month core.Month, now time.Time) (int, error) {
	var created int
	err := r.InTx(ctx, func(tx *SQLiteRepository) error {
		rows, err := tx.q.QueryContext(ctx, `SELECT id FROM bills WHERE active = 1`)
		if err != nil {
			return fmt.Errorf("list active bills: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan bill id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		ts := formatTime(now)
		for _, id := range ids {
			res, err := tx.q.ExecContext(ctx, `
				INSERT OR IGNORE INTO bill_payments (id, bill_id, month, paid, created_at, updated_at)
				VALUES (?, ?, ?, 0, ?, ?)`,
				core.NewID(), id, string(month), ts, ts)
			if err != nil {
				return fmt.Errorf("ensure bill payment %s: %w", id, classify("bill_payments", err))
			}
			if n, _ := res.RowsAffected(); n > 0 {
				created++
			}
		}
		return nil
	})
	return created, err
}

// UpdateBillPayment rewrites the payment fields of the row keyed by bill and month.
func (r *SQLiteRepository) UpdateBillPayment(ctx context.Context, p core.BillPayment) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE bill_payments
		SET paid = ?, paid_amount = ?, paid_date = ?, note = ?, updated_at = ?
		WHERE bill_id = ? AND month = ?`,
		boolToInt(p.Paid), nullFloat(p.PaidAmount), nullString(p.PaidDate.String()), nullString(p.Note),
		formatTime(p.UpdatedAt), p.BillID, string(p.Month))
	if err != nil {
		return fmt.Errorf("update bill payment %s/%s: %w", p.BillID, p.Month, classify("bill_payments", err))
	}
	return expectAffected("bill_payments", res)
}

func (r *SQLiteRepository) GetBillPayment(ctx context.Context, billID string, month core.Month) (core.BillPayment, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+billPaymentColumns+` FROM bill_payments p
		WHERE p.bill_id = ? AND p.month = ?`, billID, string(month))
	p, err := scanBillPayment(row)
	if err != nil {
		return core.BillPayment{}, fmt.Errorf("get bill payment %s/%s: %w", billID, month, classify("bill_payments", err))
	}
	return p, nil
}

// ListBillsDue joins active bills with their payment rows for the month,
// ordered by due day, owner and name. Bills without a row are omitted; call
// EnsureBillPayments first.
func (r *SQLiteRepository) ListBillsDue(ctx context.Context, month core.Month) ([]core.BillDue, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+billColumns+`, o.display_name, `+billPaymentColumns+`
		FROM bills b
		JOIN owners o ON o.id = b.owner_id
		JOIN bill_payments p ON p.bill_id = b.id AND p.month = ?
		WHERE b.active = 1
		ORDER BY b.due_day IS NULL, b.due_day, o.sort_order, b.name`, string(month))
	if err != nil {
		return nil, fmt.Errorf("list bills due: %w", err)
	}
	defer rows.Close()

	var out []core.BillDue
	for rows.Next() {
		var (
			d                  core.BillDue
			dueDay             sql.NullInt64
			amount, paidAmount sql.NullFloat64
			active, paid       int
			bCreated, bUpdated string
			pMonth             string
			paidDate, note     sql.NullString
			pCreated, pUpdated string
		)
		err := rows.Scan(
			&d.Bill.ID, &d.Bill.OwnerID, &d.Bill.Name, &dueDay, &amount, &active, &bCreated, &bUpdated,
			&d.OwnerName,
			&d.Payment.ID, &d.Payment.BillID, &pMonth, &paid, &paidAmount, &paidDate, &note, &pCreated, &pUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bill due: %w", err)
		}
		d.Bill.DueDay = intPtr(dueDay)
		d.Bill.DefaultAmount = floatPtr(amount)
		d.Bill.Active = active != 0
		if d.Bill.CreatedAt, d.Bill.UpdatedAt, err = auditTimes(bCreated, bUpdated); err != nil {
			return nil, err
		}
		if err := fillBillPayment(&d.Payment, pMonth, paid, paidAmount, paidDate, note, pCreated, pUpdated); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanBillPayment(s rowScanner) (core.BillPayment, error) {
	var (
		p                core.BillPayment
		month            string
		paid             int
		paidAmount       sql.NullFloat64
		paidDate, note   sql.NullString
		created, updated string
	)
	if err := s.Scan(&p.ID, &p.BillID, &month, &paid, &paidAmount, &paidDate, &note, &created, &updated); err != nil {
		return core.BillPayment{}, err
	}
	if err := fillBillPayment(&p, month, paid, paidAmount, paidDate, note, created, updated); err != nil {
		return core.BillPayment{}, err
	}
	return p, nil
}

func fillBillPayment(p *core.BillPayment, month string, paid int, paidAmount sql.NullFloat64, paidDate, note sql.NullString, created, updated string) error {
	p.Month = core.Month(month)
	p.Paid = paid != 0
	p.PaidAmount = floatPtr(paidAmount)
	p.Note = note.String
	if paidDate.Valid && paidDate.String != "" {
		d, err := core.ParseDate(paidDate.String)
		if err != nil {
			return fmt.Errorf("bill payment %s paid date %q: %w", p.ID, paidDate.String, err)
		}
		p.PaidDate = d
	}
	var err error
	p.CreatedAt, p.UpdatedAt, err = auditTimes(created, updated)
	return err
}
