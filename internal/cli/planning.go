package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"homeledger/internal/core"
	"homeledger/internal/services"
)

// NewBudgetCommand creates the budget command group.
func NewBudgetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Plan spending per owner and category",
	}

	var month, owner, category, amount string
	set := &cobra.Command{
		Use:   "set",
		Short: "Set the planned amount for an owner and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(month)
			if err != nil {
				return err
			}
			planned, err := requiredMoney("amount", amount)
			if err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				o, err := ledger.ResolveOwner(ctx, owner)
				if err != nil {
					return err
				}
				c, err := ledger.ResolveCategory(ctx, category)
				if err != nil {
					return err
				}
				b, err := ledger.SetBudget(ctx, m, o.ID, c.ID, planned)
				if err != nil {
					return err
				}
				return out.Success(b, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Budget %s %s %s: %s\n", b.Month, o.DisplayName, c.Name, core.FormatAmount(b.PlannedAmount))
					return err
				})
			})
		},
	}
	set.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	set.Flags().StringVar(&owner, "owner", "", "owner name or key (required)")
	_ = set.MarkFlagRequired("owner")
	set.Flags().StringVar(&category, "category", "", "category name or ID (required)")
	_ = set.MarkFlagRequired("category")
	set.Flags().StringVar(&amount, "amount", "", "planned amount (required)")
	_ = set.MarkFlagRequired("amount")
	cmd.AddCommand(set)

	var listMonth string
	list := &cobra.Command{
		Use:   "list",
		Short: "List budgets for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(listMonth)
			if err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				budgets, err := ledger.ListBudgets(ctx, m)
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
				return out.Success(budgets, func(w io.Writer) error {
					rows := make([][]string, 0, len(budgets))
					for _, b := range budgets {
						rows = append(rows, []string{owners[b.OwnerID], cats[b.CategoryID], core.FormatAmount(b.PlannedAmount)})
					}
					return writeTable(w, []string{"OWNER", "CATEGORY", "PLANNED"}, rows)
				})
			})
		},
	}
	list.Flags().StringVar(&listMonth, "month", "", "month as YYYY-MM (default current month)")
	cmd.AddCommand(list)

	return cmd
}

// NewIncomeCommand creates the income command group.
func NewIncomeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Record monthly income per owner",
	}

	var month, owner, amount string
	set := &cobra.Command{
		Use:   "set",
		Short: "Set an owner's income for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(month)
			if err != nil {
				return err
			}
			amt, err := requiredMoney("amount", amount)
			if err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				o, err := ledger.ResolveOwner(ctx, owner)
				if err != nil {
					return err
				}
				in, err := ledger.SetIncome(ctx, o.ID, m, amt)
				if err != nil {
					return err
				}
				return out.Success(in, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Income %s %s: %s\n", in.Month, o.DisplayName, core.FormatAmount(in.Amount))
					return err
				})
			})
		},
	}
	set.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	set.Flags().StringVar(&owner, "owner", "", "owner name or key (required)")
	_ = set.MarkFlagRequired("owner")
	set.Flags().StringVar(&amount, "amount", "", "income amount (required)")
	_ = set.MarkFlagRequired("amount")
	cmd.AddCommand(set)

	var listMonth string
	list := &cobra.Command{
		Use:   "list",
		Short: "List income for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(listMonth)
			if err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				income, err := ledger.ListIncome(ctx, m)
				if err != nil {
					return err
				}
				owners, err := ownerNames(ctx, ledger)
				if err != nil {
					return err
				}
				return out.Success(income, func(w io.Writer) error {
					rows := make([][]string, 0, len(income))
					var total float64
					for _, in := range income {
						total += in.Amount
						rows = append(rows, []string{owners[in.OwnerID], core.FormatAmount(in.Amount)})
					}
					rows = append(rows, []string{"Total", core.FormatAmount(core.RoundCents(total))})
					return writeTable(w, []string{"OWNER", "AMOUNT"}, rows)
				})
			})
		},
	}
	list.Flags().StringVar(&listMonth, "month", "", "month as YYYY-MM (default current month)")
	cmd.AddCommand(list)

	return cmd
}
