package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"homeledger/internal/services"
)

// NewCategoriesCommand creates the categories command group.
func NewCategoriesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage spending categories",
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List categories by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				cats, err := ledger.ListCategories(ctx, !all)
				if err != nil {
					return err
				}
				return out.Success(cats, func(w io.Writer) error {
					rows := make([][]string, 0, len(cats))
					for _, c := range cats {
						rows = append(rows, []string{c.Name, activeLabel(c.Active), c.ID})
					}
					return writeTable(w, []string{"NAME", "STATUS", "ID"}, rows)
				})
			})
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include inactive categories")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				c, err := ledger.AddCategory(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Success(c, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added category %s (%s)\n", c.Name, c.ID)
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <category> <new-name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				c, err := ledger.ResolveCategory(ctx, args[0])
				if err != nil {
					return err
				}
				c, err = ledger.RenameCategory(ctx, c.ID, args[1])
				if err != nil {
					return err
				}
				return out.Success(c, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Renamed category to %s\n", c.Name)
					return err
				})
			})
		},
	})

	cmd.AddCommand(newCategoryActiveCommand(rootOpts, "activate", true))
	cmd.AddCommand(newCategoryActiveCommand(rootOpts, "deactivate", false))
	return cmd
}

func newCategoryActiveCommand(rootOpts *RootOptions, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <category>",
		Short: fmt.Sprintf("Mark a category %s", activeLabel(active)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				c, err := ledger.ResolveCategory(ctx, args[0])
				if err != nil {
					return err
				}
				if err := ledger.SetCategoryActive(ctx, c.ID, active); err != nil {
					return err
				}
				c.Active = active
				return out.Success(c, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Category %s is %s\n", c.Name, activeLabel(active))
					return err
				})
			})
		},
	}
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
