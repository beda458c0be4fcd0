package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"homeledger/internal/core"
	"homeledger/internal/storage"
)

// SetupFile is the first-run configuration accepted by ApplySetup.
//
//	owners:
//	  person_1: Alex
//	categories: [Groceries, Dining]
//	bills:
//	  - {owner: shared, name: Rent, due_day: 1, amount: 1500}
//	accounts:
//	  - {owner: person_1, name: Visa, type: CREDIT_CARD, credit_limit: 5000}
type SetupFile struct {
	Owners     map[string]string `yaml:"owners"`
	Categories []string          `yaml:"categories"`
	Bills      []SetupBill       `yaml:"bills"`
	Accounts   []SetupAccount    `yaml:"accounts"`
}

type SetupBill struct {
	Owner  string   `yaml:"owner"`
	Name   string   `yaml:"name"`
	DueDay *int     `yaml:"due_day"`
	Amount *float64 `yaml:"amount"`
}

type SetupAccount struct {
	Owner        string   `yaml:"owner"`
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	APR          *float64 `yaml:"apr"`
	CreditLimit  *float64 `yaml:"credit_limit"`
	StartBalance *float64 `yaml:"start_balance"`
}

// SetupResult counts what ApplySetup created or changed.
type SetupResult struct {
	OwnersSeeded  int `json:"owners_seeded"`
	OwnersRenamed int `json:"owners_renamed"`
	Categories    int `json:"categories"`
	Bills         int `json:"bills"`
	Accounts      int `json:"accounts"`
}

// ParseSetup decodes a setup document, rejecting unknown fields.
func ParseSetup(r io.Reader) (SetupFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return SetupFile{}, fmt.Errorf("read setup: %w", err)
	}
	var sf SetupFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil && err != io.EOF {
		return SetupFile{}, fmt.Errorf("parse setup YAML: %w", err)
	}
	return sf, nil
}

// ApplySetup seeds the default owners and applies sf in one transaction.
// Categories, bills and accounts that already exist by name are left alone,
// so applying the same file twice changes nothing.
func (s *LedgerService) ApplySetup(ctx context.Context, sf SetupFile) (SetupResult, error) {
	var res SetupResult
	now := s.stamp()

	err := s.storage.InTx(ctx, func(tx *storage.SQLiteRepository) error {
		owners := core.DefaultOwners()
		for i := range owners {
			owners[i].ID = core.NewID()
			owners[i].CreatedAt, owners[i].UpdatedAt = now, now
		}
		n, err := tx.SeedOwners(ctx, owners)
		if err != nil {
			return err
		}
		res.OwnersSeeded = n

		for key, name := range sf.Owners {
			o, err := tx.GetOwnerBySystemKey(ctx, key)
			if err != nil {
				return fmt.Errorf("setup owner %q: %w", key, err)
			}
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("setup owner %q: %w", key, core.ErrEmptyName)
			}
			if o.DisplayName == name {
				continue
			}
			o.DisplayName, o.UpdatedAt = name, now
			if err := tx.UpdateOwner(ctx, o); err != nil {
				return err
			}
			res.OwnersRenamed++
		}

		for _, name := range sf.Categories {
			if _, err := tx.FindCategoryByName(ctx, name); err == nil {
				continue
			}
			if _, err := getOrCreateCategory(ctx, tx, name, now); err != nil {
				return fmt.Errorf("setup category %q: %w", name, err)
			}
			res.Categories++
		}

		bills, err := tx.ListBills(ctx, false)
		if err != nil {
			return err
		}
		for _, sb := range sf.Bills {
			owner, err := tx.FindOwnerByLabel(ctx, sb.Owner)
			if err != nil {
				return fmt.Errorf("setup bill %q: %w", sb.Name, err)
			}
			if hasBill(bills, owner.ID, sb.Name) {
				continue
			}
			b := core.Bill{
				ID: core.NewID(), OwnerID: owner.ID, Name: strings.TrimSpace(sb.Name),
				DueDay: sb.DueDay, DefaultAmount: sb.Amount, Active: true, CreatedAt: now, UpdatedAt: now,
			}
			if err := b.Validate(); err != nil {
				return fmt.Errorf("setup bill %q: %w", sb.Name, err)
			}
			if err := tx.CreateBill(ctx, b); err != nil {
				return err
			}
			bills = append(bills, b)
			res.Bills++
		}

		accounts, err := tx.ListAccounts(ctx, false)
		if err != nil {
			return err
		}
		for _, sa := range sf.Accounts {
			owner, err := tx.FindOwnerByLabel(ctx, sa.Owner)
			if err != nil {
				return fmt.Errorf("setup account %q: %w", sa.Name, err)
			}
			if hasAccount(accounts, owner.ID, sa.Name) {
				continue
			}
			a := core.Account{
				ID: core.NewID(), OwnerID: owner.ID, Name: strings.TrimSpace(sa.Name),
				Type: core.AccountType(strings.ToUpper(strings.TrimSpace(sa.Type))),
				APR:  sa.APR, CreditLimit: sa.CreditLimit, StartBalance: sa.StartBalance,
				Active: true, CreatedAt: now, UpdatedAt: now,
			}
			if err := a.Validate(); err != nil {
				return fmt.Errorf("setup account %q: %w", sa.Name, err)
			}
			if err := tx.CreateAccount(ctx, a); err != nil {
				return err
			}
			accounts = append(accounts, a)
			res.Accounts++
		}
		return nil
	})
	if err != nil {
		return SetupResult{}, fmt.Errorf("apply setup: %w", err)
	}
	return res, nil
}

func hasBill(bills []core.Bill, ownerID, name string) bool {
	for _, b := range bills {
		if b.OwnerID == ownerID && strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func hasAccount(accounts []core.Account, ownerID, name string) bool {
	for _, a := range accounts {
		if a.OwnerID == ownerID && strings.EqualFold(a.Name, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}
