package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homeledger/internal/core"
	"homeledger/internal/storage"
)

// DueDate returns the bill's due date within month. Due days past the end of
// a short month clamp to its last day. Bills without a due day have none.
func DueDate(b core.Bill, month core.Month) (core.Date, bool) {
	if b.DueDay == nil {
		return core.Date{}, false
	}
	start, err := month.Start()
	if err != nil {
		return core.Date{}, false
	}
	day := *b.DueDay
	if last := month.Days(); day > last {
		day = last
	}
	return core.NewDate(start.Year(), int(start.Month()), day), true
}

// BillStatusAt classifies a bill payment row relative to today.
func BillStatusAt(p core.BillPayment, due core.Date, hasDue bool, today time.Time) core.BillStatus {
	if p.Paid {
		return core.BillPaid
	}
	if !hasDue {
		return core.BillUndated
	}
	t := core.NewDate(today.Year(), int(today.Month()), today.Day())
	switch {
	case t.After(due.Time):
		return core.BillOverdue
	case t.Equal(due.Time):
		return core.BillDueToday
	default:
		return core.BillUpcoming
	}
}

// BillsDue ensures every active bill has a payment row for month and returns
// them with due dates and statuses.
func (s *LedgerService) BillsDue(ctx context.Context, month core.Month) ([]core.BillDue, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.storage.EnsureBillPayments(ctx, month, s.stamp()); err != nil {
		return nil, fmt.Errorf("bills due %s: %w", month, err)
	}
	rows, err := s.storage.ListBillsDue(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("bills due %s: %w", month, err)
	}
	today := s.now()
	for i := range rows {
		due, ok := DueDate(rows[i].Bill, month)
		rows[i].DueDate = due
		rows[i].Status = BillStatusAt(rows[i].Payment, due, ok, today)
	}
	return rows, nil
}

// BillPaymentInput records whether a bill was paid in a month.
type BillPaymentInput struct {
	BillID     string
	Month      core.Month
	Paid       bool
	PaidAmount *float64
	PaidDate   core.Date
	Note       string
}

// SetBillPaid updates the bill's payment row for the month, creating it when
// missing. Paid rows default to today's date; unpaid rows drop amount and date.
func (s *LedgerService) SetBillPaid(ctx context.Context, in BillPaymentInput) (core.BillPayment, error) {
	now := s.stamp()
	p := core.BillPayment{
		BillID:     in.BillID,
		Month:      in.Month,
		Paid:       in.Paid,
		PaidAmount: in.PaidAmount,
		PaidDate:   in.PaidDate,
		Note:       strings.TrimSpace(in.Note),
		UpdatedAt:  now,
	}
	if err := p.Validate(); err != nil {
		return core.BillPayment{}, err
	}
	if p.Paid && p.PaidDate.IsEmpty() {
		today := s.now()
		p.PaidDate = core.NewDate(today.Year(), int(today.Month()), today.Day())
	}
	if !p.Paid {
		p.PaidAmount = nil
		p.PaidDate = core.Date{}
	}
	if err := s.ensureOpen(ctx, p.Month); err != nil {
		return core.BillPayment{}, err
	}

	err := s.storage.InTx(ctx, func(tx *storage.SQLiteRepository) error {
		_, err := tx.GetBillPayment(ctx, p.BillID, p.Month)
		if errors.Is(err, core.ErrNotFound) {
			p.ID = core.NewID()
			p.CreatedAt = now
			return tx.CreateBillPayment(ctx, p)
		}
		if err != nil {
			return err
		}
		return tx.UpdateBillPayment(ctx, p)
	})
	if err != nil {
		return core.BillPayment{}, fmt.Errorf("set bill paid: %w", err)
	}
	return s.storage.GetBillPayment(ctx, p.BillID, p.Month)
}
