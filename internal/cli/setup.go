package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"homeledger/internal/services"
	"homeledger/internal/storage"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	SetupFile string
}

// InitResult is reported by the init command.
type InitResult struct {
	Database  string               `json:"database"`
	FirstRun  bool                 `json:"first_run"`
	Setup     services.SetupResult `json:"setup"`
	SetupFile string               `json:"setup_file,omitempty"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the ledger and seed owners",
		Long: `Create the ledger database if needed, apply the schema and seed the
three fixed owners. Running init again is harmless.

With --setup, a YAML file can also name the owners and declare categories,
bills and accounts. Entries that already exist are left alone.

Examples:
  ledger init
  ledger init --setup household.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SetupFile, "setup", "", "YAML setup file with owners, categories, bills and accounts")
	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	var setup *services.SetupFile
	if opts.SetupFile != "" {
		f, err := os.Open(opts.SetupFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open setup file", err)
		}
		sf, err := services.ParseSetup(f)
		f.Close()
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid setup file", err)
		}
		setup = &sf
	}

	return opts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
		first, err := ledger.IsFirstRun(ctx)
		if err != nil {
			return err
		}
		res := InitResult{Database: opts.Config.SQLiteDBPath, FirstRun: first, SetupFile: opts.SetupFile}

		if setup != nil {
			res.Setup, err = ledger.ApplySetup(ctx, *setup)
		} else {
			res.Setup.OwnersSeeded, err = ledger.SeedOwners(ctx)
		}
		if err != nil {
			return err
		}

		return out.Success(res, func(w io.Writer) error {
			fmt.Fprintf(w, "Ledger ready at %s\n", res.Database)
			fmt.Fprintf(w, "Owners seeded: %d\n", res.Setup.OwnersSeeded)
			if setup != nil {
				fmt.Fprintf(w, "Owners renamed: %d\n", res.Setup.OwnersRenamed)
				fmt.Fprintf(w, "Categories added: %d\n", res.Setup.Categories)
				fmt.Fprintf(w, "Bills added: %d\n", res.Setup.Bills)
				fmt.Fprintf(w, "Accounts added: %d\n", res.Setup.Accounts)
			}
			return nil
		})
	})
}

// NewSchemaCommand creates the schema command. It prints the DDL without
// touching any database.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the ledger schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ddl, err := storage.Schema()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read schema", err)
			}
			return rootOpts.formatter(cmd).Success(map[string]string{"schema": ddl}, func(w io.Writer) error {
				_, err := io.WriteString(w, ddl)
				return err
			})
		},
	}
}
