package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"homeledger/internal/services"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Month      string
	FileFormat string
	Out        string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a month's transactions as CSV or XLSX",
		Long: `Export the active transactions of a month with owner and category names.
The CSV layout is the one import reads back.

Examples:
  ledger export --month 2024-03 > march.csv
  ledger export --month 2024-03 --format xlsx --out march.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().StringVar(&opts.FileFormat, "format", "csv", "file format (csv|xlsx)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	m, err := opts.month(opts.Month)
	if err != nil {
		return err
	}
	format := strings.ToLower(opts.FileFormat)
	if format != "csv" && format != "xlsx" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid export format %q: must be csv or xlsx", opts.FileFormat))
	}

	return opts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, _ *OutputFormatter) error {
		var w io.Writer = cmd.OutOrStdout()
		if opts.Out != "" {
			f, err := os.Create(opts.Out)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to create output file", err)
			}
			defer f.Close()
			w = f
		}

		var n int
		if format == "xlsx" {
			n, err = ledger.ExportXLSX(ctx, w, m)
		} else {
			n, err = ledger.ExportCSV(ctx, w, m)
		}
		if err != nil {
			return err
		}
		if opts.Out != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d transactions for %s to %s\n", n, m, opts.Out)
		}
		return nil
	})
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import transactions from CSV",
		Long: `Import transactions from a CSV file with the columns
txn_date, owner, category, amount and optionally description.

Every row is checked first; nothing is imported if any row is invalid.
Owners must match a display name or key. Missing categories are created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open import file", err)
			}
			defer f.Close()

			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				res, err := ledger.ImportCSV(ctx, f)
				if err != nil {
					return err
				}
				return out.Success(res, func(w io.Writer) error {
					fmt.Fprintf(w, "Imported %d transactions into %v\n", res.Imported, res.Months)
					if len(res.CreatedCategories) > 0 {
						fmt.Fprintf(w, "New categories: %s\n", strings.Join(res.CreatedCategories, ", "))
					}
					return nil
				})
			})
		},
	}
}
