package services

import (
	"context"
	"fmt"

	"homeledger/internal/core"
)

// SetIncome records an owner's income for a month, replacing any earlier value.
func (s *LedgerService) SetIncome(ctx context.Context, ownerID string, month core.Month, amount float64) (core.Income, error) {
	now := s.stamp()
	in := core.Income{
		ID:        core.NewID(),
		OwnerID:   ownerID,
		Month:     month,
		Amount:    core.RoundCents(amount),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	if err := s.ensureOpen(ctx, month); err != nil {
		return core.Income{}, err
	}
	if err := s.storage.UpsertIncome(ctx, in); err != nil {
		return core.Income{}, fmt.Errorf("set income: %w", err)
	}
	return s.storage.GetIncome(ctx, ownerID, month)
}

func (s *LedgerService) ListIncome(ctx context.Context, month core.Month) ([]core.Income, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	return s.storage.ListIncome(ctx, month)
}

// SetBudget records the planned amount for an owner and category in a month.
func (s *LedgerService) SetBudget(ctx context.Context, month core.Month, ownerID, categoryID string, planned float64) (core.Budget, error) {
	now := s.stamp()
	b := core.Budget{
		ID:            core.NewID(),
		Month:         month,
		OwnerID:       ownerID,
		CategoryID:    categoryID,
		PlannedAmount: core.RoundCents(planned),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.ensureOpen(ctx, month); err != nil {
		return core.Budget{}, err
	}
	if err := s.storage.UpsertBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}
	return s.storage.GetBudget(ctx, month, ownerID, categoryID)
}

func (s *LedgerService) ListBudgets(ctx context.Context, month core.Month) ([]core.Budget, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	return s.storage.ListBudgets(ctx, month)
}
