package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeledger/internal/config"
	"homeledger/internal/core"
	"homeledger/internal/services"
)

func newTestOptions(t *testing.T) *RootOptions {
	t.Helper()
	return &RootOptions{
		Config: &config.Config{
			SQLiteDBPath:        filepath.Join(t.TempDir(), "ledger.db"),
			LogLevel:            "info",
			EnforceMonthClosing: true,
			ClosedMonthCacheTTL: time.Minute,
			KnownMonthsLimit:    24,
		},
		Now: func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) },
	}
}

// runLedger executes one CLI invocation against opts and returns what was
// written to stdout and stderr.
func runLedger(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// runJSON runs a command with --format json and decodes the data payload.
func runJSON(t *testing.T, opts *RootOptions, data any, args ...string) {
	t.Helper()
	stdout, _, err := runLedger(t, opts, append(args, "--format", "json")...)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "ok", resp.Status)
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
}

func TestInitSeedsOwnersOnce(t *testing.T) {
	opts := newTestOptions(t)

	var first InitResult
	runJSON(t, opts, &first, "init")
	assert.True(t, first.FirstRun)
	assert.Equal(t, 3, first.Setup.OwnersSeeded)
	assert.Equal(t, opts.Config.SQLiteDBPath, first.Database)

	var second InitResult
	runJSON(t, opts, &second, "init")
	assert.Equal(t, 0, second.Setup.OwnersSeeded)

	var owners []core.Owner
	runJSON(t, opts, &owners, "owners", "list")
	require.Len(t, owners, 3)
	assert.Equal(t, core.SystemKeyShared, owners[0].SystemKey)
}

func TestInitWithSetupFile(t *testing.T) {
	opts := newTestOptions(t)

	var res InitResult
	runJSON(t, opts, &res, "init", "--setup", filepath.Join("..", "services", "testdata", "setup.yaml"))
	assert.Positive(t, res.Setup.Categories)

	_, _, err := runLedger(t, opts, "init", "--setup", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDBFlagOverridesConfig(t *testing.T) {
	opts := newTestOptions(t)
	other := filepath.Join(t.TempDir(), "other.db")

	var res InitResult
	runJSON(t, opts, &res, "init", "--db", other)
	assert.Equal(t, other, res.Database)
	_, err := os.Stat(other)
	assert.NoError(t, err)
}

func TestSchemaCommand(t *testing.T) {
	opts := newTestOptions(t)
	stdout, _, err := runLedger(t, opts, "schema")
	require.NoError(t, err)
	for _, table := range []string{
		"owners", "categories", "bills", "accounts", "transactions",
		"account_snapshots", "income", "budgets", "bill_payments", "month_closings",
	} {
		assert.Contains(t, stdout, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}

func TestTransactionLifecycle(t *testing.T) {
	opts := newTestOptions(t)
	runJSON(t, opts, nil, "init")

	var txn core.Transaction
	runJSON(t, opts, &txn, "txn", "add",
		"--date", "2024-03-05", "--owner", "shared", "--category", "Groceries",
		"--amount", "42,10", "--desc", "weekly shop")
	assert.Equal(t, "2024-03-05", txn.Date.String())
	assert.Equal(t, 42.10, txn.Amount)
	assert.NotEmpty(t, txn.ID)

	var txns []core.Transaction
	runJSON(t, opts, &txns, "txn", "list", "--month", "2024-03")
	require.Len(t, txns, 1)
	assert.Equal(t, txn.ID, txns[0].ID)

	stdout, _, err := runLedger(t, opts, "txn", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Groceries")
	assert.Contains(t, stdout, "1 transactions, total 42.10")

	runJSON(t, opts, nil, "txn", "delete", txn.ID)

	txns = nil
	runJSON(t, opts, &txns, "txn", "list", "--month", "2024-03")
	assert.Empty(t, txns)

	var deleted core.Transaction
	runJSON(t, opts, &deleted, "txn", "show", txn.ID)
	assert.True(t, deleted.IsDeleted())
}

func TestTxnAddValidation(t *testing.T) {
	opts := newTestOptions(t)
	runJSON(t, opts, nil, "init")

	_, _, err := runLedger(t, opts, "txn", "add", "--owner", "shared", "--category", "Fuel", "--amount", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = runLedger(t, opts, "txn", "add", "--owner", "nobody", "--category", "Fuel", "--amount", "5")
	require.Error(t, err)
	assert.Equal(t, "not_found", ErrorCode(err))

	_, _, err = runLedger(t, opts, "txn", "add", "--owner", "shared", "--category", "Fuel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestClosedMonthRejectsWritesWithoutForce(t *testing.T) {
	opts := newTestOptions(t)
	runJSON(t, opts, nil, "init")

	var closed map[string]any
	runJSON(t, opts, &closed, "month", "close", "2024-03", "--note", "done")
	assert.Equal(t, true, closed["created"])

	var again map[string]any
	runJSON(t, opts, &again, "month", "close", "2024-03")
	assert.Equal(t, false, again["created"])

	_, _, err := runLedger(t, opts, "txn", "add",
		"--date", "2024-03-20", "--owner", "shared", "--category", "Groceries", "--amount", "10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMonthClosed))
	assert.Equal(t, "month_closed", ErrorCode(err))
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var forced core.Transaction
	runJSON(t, opts, &forced, "txn", "add", "--force",
		"--date", "2024-03-20", "--owner", "shared", "--category", "Groceries", "--amount", "10")
	assert.NotEmpty(t, forced.ID)

	runJSON(t, opts, nil, "txn", "add",
		"--date", "2024-04-02", "--owner", "shared", "--category", "Groceries", "--amount", "10")

	var status MonthStatus
	runJSON(t, opts, &status, "month", "status", "2024-03")
	assert.True(t, status.Closed)
	require.NotNil(t, status.Closing)
	assert.Equal(t, "done", status.Closing.Note)

	var open MonthStatus
	runJSON(t, opts, &open, "month", "status", "2024-04")
	assert.False(t, open.Closed)

	var known []core.Month
	runJSON(t, opts, &known, "month", "known")
	assert.Equal(t, []core.Month{"2024-04", "2024-03"}, known)
}

func TestBillsDueAndPay(t *testing.T) {
	opts := newTestOptions(t)
	runJSON(t, opts, nil, "init")

	var bill core.Bill
	runJSON(t, opts, &bill, "bills", "add", "--owner", "shared", "--name", "Rent", "--due-day", "31", "--amount", "900")

	var due []core.BillDue
	runJSON(t, opts, &due, "bills", "due", "--month", "2024-02")
	require.Len(t, due, 1)
	assert.Equal(t, "2024-02-29", due[0].DueDate.String())
	assert.False(t, due[0].Payment.Paid)

	runJSON(t, opts, nil, "bills", "pay", bill.ID, "--month", "2024-02", "--amount", "900", "--date", "2024-02-27")

	due = nil
	runJSON(t, opts, &due, "bills", "due", "--month", "2024-02")
	require.Len(t, due, 1)
	assert.True(t, due[0].Payment.Paid)
}

func TestExportCSV(t *testing.T) {
	opts := newTestOptions(t)
	runJSON(t, opts, nil, "init")
	runJSON(t, opts, nil, "txn", "add",
		"--date", "2024-03-02", "--owner", "shared", "--category", "Groceries", "--amount", "128.45", "--desc", "weekly shop")
	runJSON(t, opts, nil, "txn", "add",
		"--date", "2024-02-10", "--owner", "person_1", "--category", "Fuel", "--amount", "40")

	stdout, _, err := runLedger(t, opts, "export", "--month", "2024-03")
	require.NoError(t, err)
	assert.Equal(t, "txn_date,owner,category,amount,description\n2024-03-02,Shared,Groceries,128.45,weekly shop\n", stdout)

	out := filepath.Join(t.TempDir(), "march.xlsx")
	_, stderr, err := runLedger(t, opts, "export", "--month", "2024-03", "--format", "xlsx", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported 1 transactions")
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, _, err = runLedger(t, opts, "export", "--format", "pdf")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImportRejectsInvalidRows(t *testing.T) {
	opts := newTestOptions(t)
	runJSON(t, opts, nil, "init")

	path := filepath.Join(t.TempDir(), "bad.csv")
	content := strings.Join([]string{
		"txn_date,owner,category,amount,description",
		"2024-03-02,Shared,Groceries,12.00,ok",
		"2024-03-03,Shared,Groceries,abc,bad amount",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, _, err := runLedger(t, opts, "import", path)
	require.Error(t, err)
	var importErr *services.ImportError
	require.True(t, errors.As(err, &importErr))
	require.Len(t, importErr.Problems, 1)
	assert.Equal(t, 3, importErr.Problems[0].Row)
	assert.Equal(t, "amount", importErr.Problems[0].Column)

	var txns []core.Transaction
	runJSON(t, opts, &txns, "txn", "list", "--month", "2024-03")
	assert.Empty(t, txns)
}

func TestImportCreatesCategories(t *testing.T) {
	opts := newTestOptions(t)
	runJSON(t, opts, nil, "init")

	path := filepath.Join(t.TempDir(), "march.csv")
	content := "txn_date,owner,category,amount,description\n" +
		"2024-03-02,Shared,Groceries,128.45,weekly shop\n" +
		"2024-03-09,Person 1,Fuel,61.20,\"Shell, highway\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var res services.ImportResult
	runJSON(t, opts, &res, "import", path)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, []core.Month{"2024-03"}, res.Months)
	assert.ElementsMatch(t, []string{"Groceries", "Fuel"}, res.CreatedCategories)

	stdout, _, err := runLedger(t, opts, "export", "--month", "2024-03")
	require.NoError(t, err)
	assert.Equal(t, content, stdout)
}

func TestImportMissingFile(t *testing.T) {
	opts := newTestOptions(t)
	_, _, err := runLedger(t, opts, "import", filepath.Join(t.TempDir(), "none.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
