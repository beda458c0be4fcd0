package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"homeledger/internal/core"
)

func seedExportLedger(t *testing.T) *testLedger {
	t.Helper()
	l := newTestLedger(t)
	ctx := context.Background()
	shared := l.owner(t, core.SystemKeyShared)
	p1 := l.owner(t, core.SystemKeyPerson1)
	groceries := l.category(t, "Groceries")
	fuel := l.category(t, "Fuel")

	l.addTxn(t, p1.ID, fuel.ID, core.NewDate(2024, 3, 9), 61.2, "Shell, highway")
	l.addTxn(t, shared.ID, groceries.ID, core.NewDate(2024, 3, 2), 128.45, "weekly shop")
	gone := l.addTxn(t, shared.ID, groceries.ID, core.NewDate(2024, 3, 4), 9.99, "duplicate")
	l.addTxn(t, shared.ID, groceries.ID, core.NewDate(2024, 3, 5), -12, "return")
	l.addTxn(t, p1.ID, groceries.ID, core.NewDate(2024, 4, 1), 30, "")
	require.NoError(t, l.DeleteTransaction(ctx, gone.ID))
	return l
}

func TestExportCSV_Golden(t *testing.T) {
	l := seedExportLedger(t)

	var buf bytes.Buffer
	n, err := l.ExportCSV(context.Background(), &buf, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export_2024_03", buf.Bytes())
}

func TestExportCSV_AllMonths(t *testing.T) {
	l := seedExportLedger(t)

	var buf bytes.Buffer
	n, err := l.ExportCSV(context.Background(), &buf, "")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, strings.HasPrefix(buf.String(), "txn_date,owner,category,amount,description\n"))

	_, err = l.ExportCSV(context.Background(), &buf, "2024/03")
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestExportXLSX(t *testing.T) {
	l := seedExportLedger(t)

	var buf bytes.Buffer
	n, err := l.ExportXLSX(context.Background(), &buf, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, []string{"2024-03-02", "Shared", "Groceries", "128.45", "weekly shop"}, rows[1])
}

func TestImportCSV(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	l.category(t, "Groceries")
	l.pub.events = nil

	input := "Date,Owner,Category,Amount,Description\n" +
		"2024-03-01,shared,groceries,\"$1,204.50\",bulk order\n" +
		"2024-03-03,Person 1,Pharmacy,12.30,\n" +
		",,,,\n" +
		"2024-03-07,PERSON_2,Pharmacy,-4,refund\n"

	res, err := l.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, []core.Month{"2024-03"}, res.Months)
	assert.Equal(t, []string{"Pharmacy"}, res.CreatedCategories)

	rows, err := l.ExportRows(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, core.LedgerRow{Date: "2024-03-01", Owner: "Shared", Category: "Groceries", Amount: 1204.5, Description: "bulk order"}, rows[0])
	assert.Equal(t, "Person 2", rows[2].Owner)

	require.Len(t, l.pub.events, 1)
	assert.Equal(t, core.EventTransactionsImported, l.pub.events[0].Kind)
	assert.Equal(t, 3, l.pub.events[0].Count)
	assert.Equal(t, core.Month("2024-03"), l.pub.events[0].Month)
}

func TestImportCSV_KeepsLongUnicodeDescriptions(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	desc := strings.Repeat("café ", 60)
	input := "txn_date,owner,category,amount,description\n" +
		"2024-03-01,Shared,Groceries,8.40,\"" + desc + "\"\n"

	res, err := l.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	rows, err := l.ExportRows(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, strings.TrimSpace(desc), rows[0].Description)
}

func TestImportCSV_RejectsWholeFile(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	input := "txn_date,owner,category,amount\n" +
		"2024-03-01,shared,Groceries,10\n" +
		"03/02/2024,shared,Groceries,10\n" +
		"2024-03-03,shared,Groceries,0\n" +
		"2024-03-04,nobody,Groceries,5\n"

	_, err := l.ImportCSV(ctx, strings.NewReader(input))
	require.ErrorIs(t, err, ErrInvalidImport)

	var ie *ImportError
	require.ErrorAs(t, err, &ie)
	require.Len(t, ie.Problems, 3)
	assert.Equal(t, RowProblem{Row: 3, Column: "txn_date", Value: "03/02/2024", Reason: "not YYYY-MM-DD"}, ie.Problems[0])
	assert.Equal(t, "amount", ie.Problems[1].Column)
	assert.Equal(t, "owner", ie.Problems[2].Column)

	txns, err := l.ListTransactions(ctx, TransactionQuery{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, txns, "nothing is imported when any row is invalid")

	cats, err := l.ListCategories(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestImportCSV_MissingColumns(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ImportCSV(context.Background(), strings.NewReader("when,who,amount\n2024-01-01,shared,5\n"))
	var ie *ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, []string{"txn_date", "owner", "category"}, ie.MissingColumns)
}

func TestImportCSV_ClosedMonth(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	_, _, err := l.CloseMonth(ctx, "2024-01", "")
	require.NoError(t, err)

	input := "txn_date,owner,category,amount\n" +
		"2024-01-31,shared,Fuel,40\n" +
		"2024-02-01,shared,Fuel,40\n"

	_, err = l.ImportCSV(ctx, strings.NewReader(input))
	require.ErrorIs(t, err, core.ErrMonthClosed)

	txns, err := l.ListTransactions(ctx, TransactionQuery{})
	require.NoError(t, err)
	assert.Empty(t, txns)

	res, err := l.ImportCSV(AllowClosedMonth(ctx), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, []core.Month{"2024-01", "2024-02"}, res.Months)
}
