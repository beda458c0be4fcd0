package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeledger/internal/core"
)

func TestSeedOwners_Idempotent(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	n, err := l.SeedOwners(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	owners, err := l.ListOwners(ctx)
	require.NoError(t, err)
	require.Len(t, owners, 3)
	assert.Equal(t, "Shared", owners[0].DisplayName)
}

func TestRenameAndReorderOwners(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	p2 := l.owner(t, core.SystemKeyPerson2)

	_, err := l.RenameOwner(ctx, p2.ID, "  ")
	assert.ErrorIs(t, err, core.ErrEmptyName)

	renamed, err := l.RenameOwner(ctx, p2.ID, " Sam ")
	require.NoError(t, err)
	assert.Equal(t, "Sam", renamed.DisplayName)

	require.NoError(t, l.ReorderOwners(ctx, []string{p2.ID}))
	owners, err := l.ListOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sam", "Shared", "Person 1"},
		[]string{owners[0].DisplayName, owners[1].DisplayName, owners[2].DisplayName})

	assert.ErrorIs(t, l.ReorderOwners(ctx, []string{"missing"}), core.ErrNotFound)

	byName, err := l.ResolveOwner(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, p2.ID, byName.ID)
}

func TestCategories(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	groceries, err := l.AddCategory(ctx, " Groceries ")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", groceries.Name)

	_, err = l.AddCategory(ctx, "Groceries")
	assert.ErrorIs(t, err, core.ErrUniqueViolation)

	same, err := l.GetOrCreateCategory(ctx, "groceries")
	require.NoError(t, err)
	assert.Equal(t, groceries.ID, same.ID)

	require.NoError(t, l.SetCategoryActive(ctx, groceries.ID, false))
	active, err := l.ListCategories(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	renamed, err := l.RenameCategory(ctx, groceries.ID, "Food")
	require.NoError(t, err)
	assert.Equal(t, "Food", renamed.Name)

	byName, err := l.ResolveCategory(ctx, "FOOD")
	require.NoError(t, err)
	assert.Equal(t, groceries.ID, byName.ID)
	byID, err := l.ResolveCategory(ctx, groceries.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", byID.Name)
	_, err = l.ResolveCategory(ctx, "Travel")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAddAccount_Validation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	owner := l.owner(t, core.SystemKeyPerson1)

	_, err := l.AddAccount(ctx, AccountInput{OwnerID: owner.ID, Name: "Car", Type: core.Loan, CreditLimit: floatPtr(100)})
	assert.ErrorIs(t, err, core.ErrLoanCreditLimit)

	_, err = l.AddAccount(ctx, AccountInput{OwnerID: owner.ID, Name: "Car", Type: "mortgage"})
	assert.ErrorIs(t, err, core.ErrInvalidAccountType)

	card, err := l.AddAccount(ctx, AccountInput{OwnerID: owner.ID, Name: "Visa", Type: "credit_card", CreditLimit: floatPtr(5000)})
	require.NoError(t, err)
	assert.Equal(t, core.CreditCard, card.Type)

	snap, err := l.RecordSnapshot(ctx, card.ID, "2024-03", 1234.567, 100)
	require.NoError(t, err)
	assert.Equal(t, 1234.57, snap.Balance)

	again, err := l.RecordSnapshot(ctx, card.ID, "2024-03", 1000, 250)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, again.ID)
	assert.Equal(t, 1000.0, again.Balance)

	_, err = l.RecordSnapshot(ctx, "missing", "2024-03", 1, 0)
	assert.ErrorIs(t, err, core.ErrReferenceViolation)
}

func TestTransactions_AddListDelete(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	owner := l.owner(t, core.SystemKeyPerson1)
	cat := l.category(t, "Groceries")

	_, err := l.AddTransaction(ctx, TransactionInput{Date: core.NewDate(2024, 3, 1), OwnerID: owner.ID, CategoryID: cat.ID})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	keep := l.addTxn(t, owner.ID, cat.ID, core.NewDate(2024, 3, 1), 42.5, "market")
	drop := l.addTxn(t, owner.ID, cat.ID, core.NewDate(2024, 3, 2), -10, "refund")

	require.NoError(t, l.DeleteTransaction(ctx, drop.ID))
	assert.ErrorIs(t, l.DeleteTransaction(ctx, drop.ID), core.ErrNotFound)

	got, err := l.GetTransaction(ctx, drop.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())

	active, err := l.ListTransactions(ctx, TransactionQuery{OwnerID: owner.ID, Month: "2024-03"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].ID)

	all, err := l.ListTransactions(ctx, TransactionQuery{Month: "2024-03", IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = l.ListTransactions(ctx, TransactionQuery{Month: "March"})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	assert.Equal(t, []core.EventKind{
		core.EventTransactionCreated,
		core.EventTransactionCreated,
		core.EventTransactionDeleted,
	}, l.pub.kinds())
	assert.Equal(t, core.Month("2024-03"), l.pub.events[2].Month)
	assert.Equal(t, testNow, l.pub.events[0].OccurredAt)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	l := newTestLedger(t)
	l.pub.err = errBrokerDown
	owner := l.owner(t, core.SystemKeyShared)
	cat := l.category(t, "Fuel")

	txn := l.addTxn(t, owner.ID, cat.ID, core.NewDate(2024, 3, 3), 60, "")
	_, err := l.GetTransaction(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Contains(t, l.logs.String(), "Failed to publish event")
	assert.Contains(t, l.logs.String(), "broker down")
}

func TestIncomeAndBudgets(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	p1 := l.owner(t, core.SystemKeyPerson1)
	cat := l.category(t, "Dining")

	first, err := l.SetIncome(ctx, p1.ID, "2024-03", 4000)
	require.NoError(t, err)
	second, err := l.SetIncome(ctx, p1.ID, "2024-03", 4100)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4100.0, second.Amount)

	_, err = l.SetIncome(ctx, p1.ID, "2024-3", 1)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = l.SetBudget(ctx, "2024-03", p1.ID, cat.ID, -5)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = l.SetBudget(ctx, "2024-03", p1.ID, cat.ID, 250)
	require.NoError(t, err)
	b, err := l.SetBudget(ctx, "2024-03", p1.ID, cat.ID, 300)
	require.NoError(t, err)
	assert.Equal(t, 300.0, b.PlannedAmount)

	budgets, err := l.ListBudgets(ctx, "2024-03")
	require.NoError(t, err)
	assert.Len(t, budgets, 1)

	income, err := l.ListIncome(ctx, "2024-03")
	require.NoError(t, err)
	assert.Len(t, income, 1)
}
