package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeledger/internal/core"
	"homeledger/internal/services"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "ledger", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	expected := []string{
		"init", "schema", "owners", "categories", "bills", "accounts",
		"txn", "budget", "income", "month", "export", "import",
	}
	for _, name := range expected {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, "command %s", name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("force"))

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
}

func TestSubcommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	add, _, err := cmd.Find([]string{"txn", "add"})
	require.NoError(t, err)
	for _, name := range []string{"date", "owner", "category", "amount", "desc"} {
		assert.NotNil(t, add.Flags().Lookup(name), "txn add --%s", name)
	}

	export, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)
	assert.Equal(t, "csv", export.Flags().Lookup("format").DefValue)
	assert.Equal(t, "o", export.Flags().Lookup("out").Shorthand)

	pay, _, err := cmd.Find([]string{"bills", "pay"})
	require.NoError(t, err)
	assert.NotNil(t, pay.Flags().Lookup("unpaid"))
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("JSON"))
}

func TestFormatValidationIntegration(t *testing.T) {
	opts := newTestOptions(t)
	_, _, err := runLedger(t, opts, "--format", "yaml", "owners", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUnknownFlagIsCommandError(t *testing.T) {
	opts := newTestOptions(t)
	_, _, err := runLedger(t, opts, "owners", "list", "--nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "open", errors.New("disk")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())

	inner := errors.New("no such file")
	err := WrapExitError(ExitCommandError, "failed to open", inner)
	assert.Equal(t, "failed to open: no such file", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"month closed", &core.MonthClosedError{Months: []core.Month{"2024-03"}}, "month_closed"},
		{"not found", fmt.Errorf("get bill: %w", core.ErrNotFound), "not_found"},
		{"unique", &core.ConstraintError{Kind: core.ConstraintUnique, Table: "categories"}, "unique_violation"},
		{"reference", &core.ConstraintError{Kind: core.ConstraintReference, Table: "bills"}, "reference_violation"},
		{"import", &services.ImportError{MissingColumns: []string{"amount"}}, "invalid_import"},
		{"command", NewExitError(ExitCommandError, "bad"), "command_error"},
		{"other", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"imported": 2}, nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"imported": float64(2)}, resp.Data)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	importErr := &services.ImportError{Problems: []services.RowProblem{
		{Row: 3, Column: "amount", Value: "abc", Reason: "missing, zero or not a number"},
	}}
	require.NoError(t, f.Error(importErr))

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string               `json:"code"`
			Message string               `json:"message"`
			Details services.ImportError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "invalid_import", resp.Error.Code)
	require.Len(t, resp.Error.Details.Problems, 1)
	assert.Equal(t, 3, resp.Error.Details.Problems[0].Row)
	assert.Equal(t, "amount", resp.Error.Details.Problems[0].Column)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success(nil, func(w io.Writer) error {
		_, err := fmt.Fprint(w, "Closed 2024-03")
		return err
	}))
	assert.Equal(t, "Closed 2024-03", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Error(&core.MonthClosedError{Months: []core.Month{"2024-03"}}))
	assert.Contains(t, buf.String(), "Error [month_closed]")
	assert.Contains(t, buf.String(), "2024-03")
}

func TestWriteTable(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeTable(buf, []string{"NAME", "AMOUNT"}, [][]string{
		{"Rent", "900.00"},
		{"Internet", "29.90"},
	}))
	assert.Equal(t, "NAME      AMOUNT\nRent      900.00\nInternet  29.90\n", buf.String())
}

func TestAmountOrDash(t *testing.T) {
	v := 12.5
	assert.Equal(t, "12.50", amountOrDash(&v))
	assert.Equal(t, "-", amountOrDash(nil))
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "x", orDash("x"))
}
