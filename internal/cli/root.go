package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"homeledger/internal/config"
	"homeledger/internal/core"
	"homeledger/internal/log"
	"homeledger/internal/services"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string // "json" | "text"
	DB      string
	Force   bool
	Verbose bool

	// Config is loaded from the environment before the first command runs
	// unless a caller set it already.
	Config *config.Config
	// Now is the clock used for default months and dates.
	Now func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ledger CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Household ledger",
		Long: `A household finance ledger backed by a local SQLite file.

Tracks owners, spending categories, recurring bills and their monthly
payments, credit cards and loans with monthly snapshots, transactions,
income and budgets. Closed months reject further writes unless --force
is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Config == nil {
				cfg, err := LoadAndValidateConfig()
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid configuration", err)
				}
				opts.Config = cfg
			}
			if opts.DB != "" {
				opts.Config.SQLiteDBPath = opts.DB
			}
			if opts.Now == nil {
				opts.Now = time.Now
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to the SQLite ledger (default $SQLITE_DB_PATH)")
	cmd.PersistentFlags().BoolVar(&opts.Force, "force", false, "allow writes into closed months")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging on stderr")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewOwnersCommand(opts))
	cmd.AddCommand(NewCategoriesCommand(opts))
	cmd.AddCommand(NewBillsCommand(opts))
	cmd.AddCommand(NewAccountsCommand(opts))
	cmd.AddCommand(NewTxnCommand(opts))
	cmd.AddCommand(NewBudgetCommand(opts))
	cmd.AddCommand(NewIncomeCommand(opts))
	cmd.AddCommand(NewMonthCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// ledgerFunc is the body of a command that needs an open ledger.
type ledgerFunc func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error

// withLedger opens the ledger for one command invocation and closes it after.
func (o *RootOptions) withLedger(cmd *cobra.Command, fn ledgerFunc) error {
	logger := log.New(log.Config{
		Level:     logLevelFor(o.Config, o.Verbose),
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})

	ledger, cleanup, err := OpenLedger(o.Config, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = log.WithContext(ctx, logger)
	if o.Force {
		ctx = services.AllowClosedMonth(ctx)
	}
	return fn(ctx, ledger, o.formatter(cmd))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// month parses s, defaulting to the current month when empty.
func (o *RootOptions) month(s string) (core.Month, error) {
	if s == "" {
		return core.MonthOf(o.Now()), nil
	}
	m, err := core.ParseMonth(s)
	if err != nil {
		return "", WrapExitError(ExitCommandError, fmt.Sprintf("invalid month %q", s), err)
	}
	return m, nil
}

// date parses s, defaulting to today when empty.
func (o *RootOptions) date(s string) (core.Date, error) {
	if s == "" {
		now := o.Now()
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid date %q", s), err)
	}
	return d, nil
}

// optionalMoney parses the named flag only when it was given.
func optionalMoney(cmd *cobra.Command, name, raw string) (*float64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := core.ParseMoney(raw)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --%s %q", name, raw), err)
	}
	return &v, nil
}

// requiredMoney parses a flag that may be zero, such as a balance.
func requiredMoney(name, raw string) (float64, error) {
	v, err := core.ParseMoney(raw)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --%s %q", name, raw), err)
	}
	return v, nil
}

// ownerNames maps owner IDs to display names for table output.
func ownerNames(ctx context.Context, ledger *services.LedgerService) (map[string]string, error) {
	owners, err := ledger.ListOwners(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(owners))
	for _, o := range owners {
		names[o.ID] = o.DisplayName
	}
	return names, nil
}

func categoryNames(ctx context.Context, ledger *services.LedgerService) (map[string]string, error) {
	cats, err := ledger.ListCategories(ctx, false)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}
