package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homeledger/internal/core"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// createTestRepo opens a fresh ledger database in a temp directory with the
// default owners seeded.
func createTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	owners := core.DefaultOwners()
	for i := range owners {
		owners[i].ID = core.NewID()
		owners[i].CreatedAt, owners[i].UpdatedAt = testNow, testNow
	}
	_, err = repo.SeedOwners(context.Background(), owners)
	require.NoError(t, err)
	return repo
}

func ownerByKey(t *testing.T, repo *SQLiteRepository, key string) core.Owner {
	t.Helper()
	o, err := repo.GetOwnerBySystemKey(context.Background(), key)
	require.NoError(t, err)
	return o
}

func createTestCategory(t *testing.T, repo *SQLiteRepository, name string) core.Category {
	t.Helper()
	c := core.Category{ID: core.NewID(), Name: name, Active: true, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, repo.CreateCategory(context.Background(), c))
	return c
}

func createTestBill(t *testing.T, repo *SQLiteRepository, ownerID, name string, dueDay *int) core.Bill {
	t.Helper()
	b := core.Bill{ID: core.NewID(), OwnerID: ownerID, Name: name, DueDay: dueDay, Active: true, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, repo.CreateBill(context.Background(), b))
	return b
}

func createTestAccount(t *testing.T, repo *SQLiteRepository, ownerID, name string) core.Account {
	t.Helper()
	a := core.Account{ID: core.NewID(), OwnerID: ownerID, Name: name, Type: core.CreditCard, Active: true, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, repo.CreateAccount(context.Background(), a))
	return a
}

func newTestTransaction(ownerID, categoryID string, date core.Date, amount float64) core.Transaction {
	return core.Transaction{
		ID:         core.NewID(),
		Date:       date,
		OwnerID:    ownerID,
		CategoryID: categoryID,
		Amount:     amount,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
}

func intPtrOf(v int) *int           { return &v }
func floatPtrOf(v float64) *float64 { return &v }
