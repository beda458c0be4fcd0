package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"homeledger/internal/core"
	"homeledger/internal/services"
)

// NewOwnersCommand creates the owners command group.
func NewOwnersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owners",
		Short: "List, rename and reorder the household owners",
		Long: `Owners are fixed: one shared owner and two people. Their system keys
(shared, person_1, person_2) never change; display names and display order do.
Owners can be referred to by display name or system key.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List owners in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				owners, err := ledger.ListOwners(ctx)
				if err != nil {
					return err
				}
				return out.Success(owners, func(w io.Writer) error {
					return writeOwners(w, owners)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <owner> <new-name>",
		Short: "Change an owner's display name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				o, err := ledger.ResolveOwner(ctx, args[0])
				if err != nil {
					return err
				}
				o, err = ledger.RenameOwner(ctx, o.ID, args[1])
				if err != nil {
					return err
				}
				return out.Success(o, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Renamed %s to %s\n", o.SystemKey, o.DisplayName)
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reorder <owner>...",
		Short: "Set the display order; unlisted owners follow",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				ids := make([]string, 0, len(args))
				for _, label := range args {
					o, err := ledger.ResolveOwner(ctx, label)
					if err != nil {
						return err
					}
					ids = append(ids, o.ID)
				}
				if err := ledger.ReorderOwners(ctx, ids); err != nil {
					return err
				}
				owners, err := ledger.ListOwners(ctx)
				if err != nil {
					return err
				}
				return out.Success(owners, func(w io.Writer) error {
					return writeOwners(w, owners)
				})
			})
		},
	})

	return cmd
}

func writeOwners(w io.Writer, owners []core.Owner) error {
	rows := make([][]string, 0, len(owners))
	for _, o := range owners {
		rows = append(rows, []string{strconv.Itoa(o.SortOrder), o.SystemKey, o.DisplayName, o.ID})
	}
	return writeTable(w, []string{"ORDER", "KEY", "NAME", "ID"}, rows)
}
