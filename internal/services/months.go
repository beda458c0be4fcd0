package services

import (
	"context"
	"fmt"
	"strings"

	"homeledger/internal/core"
	"homeledger/internal/log"
	"homeledger/internal/storage"
)

// CloseMonth marks month as closed after making sure every active bill has a
// payment row for it. Closing an already closed month returns the existing
// closing and created=false.
func (s *LedgerService) CloseMonth(ctx context.Context, month core.Month, note string) (closing core.MonthClosing, created bool, err error) {
	if err := month.Validate(); err != nil {
		return core.MonthClosing{}, false, err
	}

	err = s.storage.InTx(ctx, func(tx *storage.SQLiteRepository) error {
		closed, err := tx.IsClosed(ctx, month)
		if err != nil {
			return err
		}
		if closed {
			closing, err = tx.GetClosing(ctx, month)
			return err
		}

		now := s.stamp()
		if _, err := tx.EnsureBillPayments(ctx, month, now); err != nil {
			return err
		}
		closing = core.MonthClosing{
			ID:        core.NewID(),
			Month:     month,
			ClosedAt:  now,
			Note:      strings.TrimSpace(note),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateClosing(ctx, closing); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return core.MonthClosing{}, false, fmt.Errorf("close month %s: %w", month, err)
	}

	if s.closedMonths != nil {
		s.closedMonths.MarkClosed(month)
	}
	if created {
		s.logger.InfoContext(ctx, "Month closed", log.NewFields().WithOperation(log.OpClose).WithMonth(month).ToSlice()...)
		s.publish(ctx, core.Event{Kind: core.EventMonthClosed, Month: month})
	}
	return closing, created, nil
}

// IsMonthClosed reports whether month has a closing record. Positive answers
// are cached when a cache is configured.
func (s *LedgerService) IsMonthClosed(ctx context.Context, month core.Month) (bool, error) {
	if s.closedMonths != nil && s.closedMonths.Lookup(month) {
		return true, nil
	}
	closed, err := s.storage.IsClosed(ctx, month)
	if err != nil {
		return false, err
	}
	if closed && s.closedMonths != nil {
		s.closedMonths.MarkClosed(month)
	}
	return closed, nil
}

// GetClosing returns the closing record for month, or core.ErrNotFound while
// the month is open.
func (s *LedgerService) GetClosing(ctx context.Context, month core.Month) (core.MonthClosing, error) {
	if err := month.Validate(); err != nil {
		return core.MonthClosing{}, err
	}
	return s.storage.GetClosing(ctx, month)
}

func (s *LedgerService) ListClosings(ctx context.Context) ([]core.MonthClosing, error) {
	return s.storage.ListClosings(ctx)
}

// KnownMonths lists months carrying any ledger data, newest first.
func (s *LedgerService) KnownMonths(ctx context.Context, limit int) ([]core.Month, error) {
	return s.storage.KnownMonths(ctx, limit)
}

// IsFirstRun reports whether the ledger holds no user data yet.
func (s *LedgerService) IsFirstRun(ctx context.Context) (bool, error) {
	return s.storage.IsEmpty(ctx)
}
