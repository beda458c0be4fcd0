package services

import (
	"context"
	"fmt"
	"strings"

	"homeledger/internal/core"
	"homeledger/internal/storage"
)

// SeedOwners inserts the default owners that are missing and returns how many
// were added.
func (s *LedgerService) SeedOwners(ctx context.Context) (int, error) {
	now := s.stamp()
	owners := core.DefaultOwners()
	for i := range owners {
		owners[i].ID = core.NewID()
		owners[i].CreatedAt, owners[i].UpdatedAt = now, now
	}
	n, err := s.storage.SeedOwners(ctx, owners)
	if err != nil {
		return n, fmt.Errorf("seed owners: %w", err)
	}
	return n, nil
}

func (s *LedgerService) ListOwners(ctx context.Context) ([]core.Owner, error) {
	return s.storage.ListOwners(ctx)
}

// ResolveOwner finds an owner by display name or system key.
func (s *LedgerService) ResolveOwner(ctx context.Context, label string) (core.Owner, error) {
	if strings.TrimSpace(label) == "" {
		return core.Owner{}, core.ErrEmptyName
	}
	return s.storage.FindOwnerByLabel(ctx, label)
}

func (s *LedgerService) RenameOwner(ctx context.Context, id, name string) (core.Owner, error) {
	o, err := s.storage.GetOwner(ctx, id)
	if err != nil {
		return core.Owner{}, err
	}
	o.DisplayName = strings.TrimSpace(name)
	o.UpdatedAt = s.stamp()
	if err := o.Validate(); err != nil {
		return core.Owner{}, err
	}
	if err := s.storage.UpdateOwner(ctx, o); err != nil {
		return core.Owner{}, err
	}
	return o, nil
}

// ReorderOwners assigns sort orders following ids. Owners not listed keep
// their relative order after the listed ones.
func (s *LedgerService) ReorderOwners(ctx context.Context, ids []string) error {
	return s.storage.InTx(ctx, func(tx *storage.SQLiteRepository) error {
		owners, err := tx.ListOwners(ctx)
		if err != nil {
			return err
		}
		byID := make(map[string]core.Owner, len(owners))
		for _, o := range owners {
			byID[o.ID] = o
		}

		order := make([]core.Owner, 0, len(owners))
		listed := make(map[string]bool, len(ids))
		for _, id := range ids {
			o, ok := byID[id]
			if !ok {
				return fmt.Errorf("reorder owner %s: %w", id, core.ErrNotFound)
			}
			if listed[id] {
				continue
			}
			listed[id] = true
			order = append(order, o)
		}
		for _, o := range owners {
			if !listed[o.ID] {
				order = append(order, o)
			}
		}

		now := s.stamp()
		for i, o := range order {
			if o.SortOrder == i {
				continue
			}
			o.SortOrder = i
			o.UpdatedAt = now
			if err := tx.UpdateOwner(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
}
