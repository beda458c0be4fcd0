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

func (s *LedgerService) ListCategories(ctx context.Context, activeOnly bool) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, activeOnly)
}

func (s *LedgerService) AddCategory(ctx context.Context, name string) (core.Category, error) {
	now := s.stamp()
	c := core.Category{
		ID:        core.NewID(),
		Name:      strings.TrimSpace(name),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.storage.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// GetOrCreateCategory returns the category named name, ignoring case, and
// creates it when missing.
func (s *LedgerService) GetOrCreateCategory(ctx context.Context, name string) (core.Category, error) {
	return getOrCreateCategory(ctx, s.storage, name, s.stamp())
}

func getOrCreateCategory(ctx context.Context, repo *storage.SQLiteRepository, name string, now time.Time) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyName
	}
	c, err := repo.FindCategoryByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, err
	}
	c = core.Category{ID: core.NewID(), Name: name, Active: true, CreatedAt: now, UpdatedAt: now}
	if err := repo.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// ResolveCategory finds a category by ID or, failing that, by name ignoring case.
func (s *LedgerService) ResolveCategory(ctx context.Context, label string) (core.Category, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.Category{}, core.ErrEmptyName
	}
	c, err := s.storage.GetCategory(ctx, label)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, err
	}
	return s.storage.FindCategoryByName(ctx, label)
}

func (s *LedgerService) RenameCategory(ctx context.Context, id, name string) (core.Category, error) {
	c, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	c.Name = strings.TrimSpace(name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.UpdatedAt = s.stamp()
	if err := s.storage.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *LedgerService) SetCategoryActive(ctx context.Context, id string, active bool) error {
	c, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	c.Active = active
	c.UpdatedAt = s.stamp()
	return s.storage.UpdateCategory(ctx, c)
}

// BillInput carries the user-editable bill fields.
type BillInput struct {
	OwnerID       string
	Name          string
	DueDay        *int
	DefaultAmount *float64
}

func (s *LedgerService) AddBill(ctx context.Context, in BillInput) (core.Bill, error) {
	now := s.stamp()
	b := core.Bill{
		ID:            core.NewID(),
		OwnerID:       in.OwnerID,
		Name:          strings.TrimSpace(in.Name),
		DueDay:        in.DueDay,
		DefaultAmount: in.DefaultAmount,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	if err := s.storage.CreateBill(ctx, b); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}

// UpdateBill replaces the editable fields of an existing bill.
func (s *LedgerService) UpdateBill(ctx context.Context, id string, in BillInput) (core.Bill, error) {
	b, err := s.storage.GetBill(ctx, id)
	if err != nil {
		return core.Bill{}, err
	}
	b.OwnerID = in.OwnerID
	b.Name = strings.TrimSpace(in.Name)
	b.DueDay = in.DueDay
	b.DefaultAmount = in.DefaultAmount
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	b.UpdatedAt = s.stamp()
	if err := s.storage.UpdateBill(ctx, b); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}

func (s *LedgerService) SetBillActive(ctx context.Context, id string, active bool) error {
	b, err := s.storage.GetBill(ctx, id)
	if err != nil {
		return err
	}
	b.Active = active
	b.UpdatedAt = s.stamp()
	return s.storage.UpdateBill(ctx, b)
}

func (s *LedgerService) ListBills(ctx context.Context, activeOnly bool) ([]core.Bill, error) {
	return s.storage.ListBills(ctx, activeOnly)
}

// AccountInput carries the user-editable account fields.
type AccountInput struct {
	OwnerID      string
	Name         string
	Type         core.AccountType
	APR          *float64
	CreditLimit  *float64
	StartBalance *float64
}

func (s *LedgerService) AddAccount(ctx context.Context, in AccountInput) (core.Account, error) {
	now := s.stamp()
	a := core.Account{
		ID:           core.NewID(),
		OwnerID:      in.OwnerID,
		Name:         strings.TrimSpace(in.Name),
		Type:         core.AccountType(strings.ToUpper(strings.TrimSpace(string(in.Type)))),
		APR:          in.APR,
		CreditLimit:  in.CreditLimit,
		StartBalance: in.StartBalance,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.storage.CreateAccount(ctx, a); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (s *LedgerService) SetAccountActive(ctx context.Context, id string, active bool) error {
	a, err := s.storage.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	a.Active = active
	a.UpdatedAt = s.stamp()
	return s.storage.UpdateAccount(ctx, a)
}

func (s *LedgerService) ListAccounts(ctx context.Context, activeOnly bool) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, activeOnly)
}

// RecordSnapshot stores an account's balance and payment for a month,
// replacing any earlier snapshot for the same month.
func (s *LedgerService) RecordSnapshot(ctx context.Context, accountID string, month core.Month, balance, payment float64) (core.AccountSnapshot, error) {
	now := s.stamp()
	snap := core.AccountSnapshot{
		ID:        core.NewID(),
		AccountID: accountID,
		Month:     month,
		Balance:   core.RoundCents(balance),
		Payment:   core.RoundCents(payment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := snap.Validate(); err != nil {
		return core.AccountSnapshot{}, err
	}
	if err := s.ensureOpen(ctx, month); err != nil {
		return core.AccountSnapshot{}, err
	}
	if err := s.storage.UpsertSnapshot(ctx, snap); err != nil {
		return core.AccountSnapshot{}, fmt.Errorf("record snapshot: %w", err)
	}
	return s.storage.GetSnapshot(ctx, accountID, month)
}

func (s *LedgerService) ListSnapshots(ctx context.Context, accountID string) ([]core.AccountSnapshot, error) {
	return s.storage.ListSnapshots(ctx, accountID)
}

// AccountPositions lists active accounts with the month's snapshot and the
// previous one.
func (s *LedgerService) AccountPositions(ctx context.Context, month core.Month) ([]core.AccountPosition, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	return s.storage.ListAccountPositions(ctx, month)
}
