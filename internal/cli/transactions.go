package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"homeledger/internal/core"
	"homeledger/internal/services"
)

// NewTxnCommand creates the txn command group.
func NewTxnCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "txn",
		Aliases: []string{"transactions"},
		Short:   "Record and review transactions",
	}

	cmd.AddCommand(newTxnAddCommand(rootOpts))
	cmd.AddCommand(newTxnListCommand(rootOpts))
	cmd.AddCommand(newTxnShowCommand(rootOpts))
	cmd.AddCommand(newTxnDeleteCommand(rootOpts))
	return cmd
}

func newTxnAddCommand(rootOpts *RootOptions) *cobra.Command {
	var date, owner, category, amount, desc string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record a transaction. Spending is positive and refunds are negative.
The category is created when it does not exist yet.

Examples:
  ledger txn add --owner shared --category Groceries --amount 42.10
  ledger txn add --date 2024-03-05 --owner "Person 1" --category Fuel --amount 61,20 --desc "Shell"
  ledger txn add --owner shared --category Groceries --amount=-12 --desc return`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := rootOpts.date(date)
			if err != nil {
				return err
			}
			amt, err := core.ParseAmount(amount)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --amount %q", amount), err)
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				o, err := ledger.ResolveOwner(ctx, owner)
				if err != nil {
					return err
				}
				c, err := ledger.GetOrCreateCategory(ctx, category)
				if err != nil {
					return err
				}
				t, err := ledger.AddTransaction(ctx, services.TransactionInput{
					Date:        d,
					OwnerID:     o.ID,
					CategoryID:  c.ID,
					Amount:      amt,
					Description: desc,
				})
				if err != nil {
					return err
				}
				return out.Success(t, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Recorded %s %s %s %s (%s)\n",
						t.Date, o.DisplayName, c.Name, core.FormatAmount(t.Amount), t.ID)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "transaction date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&owner, "owner", "", "owner name or key (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().StringVar(&category, "category", "", "category name (required)")
	_ = cmd.MarkFlagRequired("category")
	cmd.Flags().StringVar(&amount, "amount", "", "signed amount (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	return cmd
}

func newTxnListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		month, owner   string
		includeDeleted bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(month)
			if err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				q := services.TransactionQuery{Month: m, IncludeDeleted: includeDeleted}
				if owner != "" {
					o, err := ledger.ResolveOwner(ctx, owner)
					if err != nil {
						return err
					}
					q.OwnerID = o.ID
				}
				txns, err := ledger.ListTransactions(ctx, q)
				if err != nil {
					return err
				}
				owners, err := ownerNames(ctx, ledger)
				if err != nil {
					return err
				}
				cats, err := categoryNames(ctx, ledger)
				if err != nil {
					return err
				}
				return out.Success(txns, func(w io.Writer) error {
					rows := make([][]string, 0, len(txns))
					var total float64
					for _, t := range txns {
						status := ""
						if t.IsDeleted() {
							status = "deleted"
						} else {
							total += t.Amount
						}
						rows = append(rows, []string{
							t.Date.String(), owners[t.OwnerID], cats[t.CategoryID],
							core.FormatAmount(t.Amount), orDash(t.Description), orDash(status), t.ID,
						})
					}
					if err := writeTable(w, []string{"DATE", "OWNER", "CATEGORY", "AMOUNT", "DESCRIPTION", "STATUS", "ID"}, rows); err != nil {
						return err
					}
					_, err := fmt.Fprintf(w, "\n%d transactions, total %s\n", len(txns), core.FormatAmount(core.RoundCents(total)))
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().StringVar(&owner, "owner", "", "only this owner")
	cmd.Flags().BoolVar(&includeDeleted, "deleted", false, "include deleted transactions")
	return cmd
}

func newTxnShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction, deleted or not",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				t, err := ledger.GetTransaction(ctx, args[0])
				if err != nil {
					return err
				}
				owners, err := ownerNames(ctx, ledger)
				if err != nil {
					return err
				}
				cats, err := categoryNames(ctx, ledger)
				if err != nil {
					return err
				}
				return out.Success(t, func(w io.Writer) error {
					fmt.Fprintf(w, "ID:          %s\n", t.ID)
					fmt.Fprintf(w, "Date:        %s\n", t.Date)
					fmt.Fprintf(w, "Owner:       %s\n", owners[t.OwnerID])
					fmt.Fprintf(w, "Category:    %s\n", cats[t.CategoryID])
					fmt.Fprintf(w, "Amount:      %s\n", core.FormatAmount(t.Amount))
					fmt.Fprintf(w, "Description: %s\n", orDash(t.Description))
					if t.IsDeleted() {
						fmt.Fprintf(w, "Deleted at:  %s\n", t.DeletedAt.Format("2006-01-02 15:04"))
					}
					return nil
				})
			})
		},
	}
}

func newTxnDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction; it stays retrievable with txn show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				if err := ledger.DeleteTransaction(ctx, args[0]); err != nil {
					return err
				}
				res := map[string]any{"id": args[0], "deleted": true}
				return out.Success(res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted transaction %s\n", args[0])
					return err
				})
			})
		},
	}
}
