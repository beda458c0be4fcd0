package services

import (
	"context"
	"fmt"
	"strings"

	"homeledger/internal/core"
	"homeledger/internal/log"
	"homeledger/internal/storage"
)

// TransactionInput carries a new ledger entry.
type TransactionInput struct {
	Date        core.Date
	OwnerID     string
	CategoryID  string
	Amount      float64
	Description string
}

// AddTransaction saves a transaction locally and publishes transaction.created.
func (s *LedgerService) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	now := s.stamp()
	t := core.Transaction{
		ID:          core.NewID(),
		Date:        in.Date,
		OwnerID:     in.OwnerID,
		CategoryID:  in.CategoryID,
		Amount:      core.RoundCents(in.Amount),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.ensureOpen(ctx, t.Date.Period()); err != nil {
		return core.Transaction{}, err
	}
	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction created", log.NewFields().WithOperation(log.OpCreate).WithTransaction(t).ToSlice()...)
	s.publish(ctx, core.Event{
		Kind:     core.EventTransactionCreated,
		EntityID: t.ID,
		Month:    t.Date.Period(),
	})
	return t, nil
}

// GetTransaction returns a transaction, including soft deleted ones.
func (s *LedgerService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// DeleteTransaction soft deletes a transaction and publishes transaction.deleted.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	t, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if t.IsDeleted() {
		return fmt.Errorf("transaction %s already deleted: %w", id, core.ErrNotFound)
	}
	if err := s.ensureOpen(ctx, t.Date.Period()); err != nil {
		return err
	}
	if err := s.storage.SoftDeleteTransaction(ctx, id, s.stamp()); err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted", log.NewFields().WithOperation(log.OpDelete).WithTransaction(t).ToSlice()...)
	s.publish(ctx, core.Event{
		Kind:     core.EventTransactionDeleted,
		EntityID: id,
		Month:    t.Date.Period(),
	})
	return nil
}

// TransactionQuery selects transactions by owner and month.
type TransactionQuery struct {
	OwnerID        string
	Month          core.Month
	IncludeDeleted bool
}

func (s *LedgerService) ListTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error) {
	if q.Month != "" {
		if err := q.Month.Validate(); err != nil {
			return nil, err
		}
	}
	return s.storage.ListTransactions(ctx, storage.TransactionFilter{
		OwnerID:        q.OwnerID,
		Month:          q.Month,
		IncludeDeleted: q.IncludeDeleted,
	})
}
