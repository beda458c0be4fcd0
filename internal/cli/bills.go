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

// NewBillsCommand creates the bills command group.
func NewBillsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bills",
		Aliases: []string{"bill"},
		Short:   "Manage recurring bills and their monthly payments",
	}

	cmd.AddCommand(newBillsListCommand(rootOpts))
	cmd.AddCommand(newBillsAddCommand(rootOpts))
	cmd.AddCommand(newBillActiveCommand(rootOpts, "activate", true))
	cmd.AddCommand(newBillActiveCommand(rootOpts, "deactivate", false))
	cmd.AddCommand(newBillsDueCommand(rootOpts))
	cmd.AddCommand(newBillsPayCommand(rootOpts))
	return cmd
}

func newBillsListCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills by owner and due day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				bills, err := ledger.ListBills(ctx, !all)
				if err != nil {
					return err
				}
				names, err := ownerNames(ctx, ledger)
				if err != nil {
					return err
				}
				return out.Success(bills, func(w io.Writer) error {
					rows := make([][]string, 0, len(bills))
					for _, b := range bills {
						rows = append(rows, []string{
							names[b.OwnerID], b.Name, dueDayLabel(b.DueDay),
							amountOrDash(b.DefaultAmount), activeLabel(b.Active), b.ID,
						})
					}
					return writeTable(w, []string{"OWNER", "NAME", "DUE", "AMOUNT", "STATUS", "ID"}, rows)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive bills")
	return cmd
}

func newBillsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		owner, name, amount string
		dueDay              int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recurring bill",
		Long: `Add a recurring bill. Due days past the end of a short month fall on its
last day.

Examples:
  ledger bills add --owner shared --name Rent --due-day 1 --amount 950
  ledger bills add --owner "Person 1" --name Gym`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := services.BillInput{Name: name}
			if cmd.Flags().Changed("due-day") {
				in.DueDay = &dueDay
			}
			var err error
			if in.DefaultAmount, err = optionalMoney(cmd, "amount", amount); err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				o, err := ledger.ResolveOwner(ctx, owner)
				if err != nil {
					return err
				}
				in.OwnerID = o.ID
				b, err := ledger.AddBill(ctx, in)
				if err != nil {
					return err
				}
				return out.Success(b, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added bill %s for %s (%s)\n", b.Name, o.DisplayName, b.ID)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner name or key (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().StringVar(&name, "name", "", "bill name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().IntVar(&dueDay, "due-day", 0, "day of month the bill is due (1-31)")
	cmd.Flags().StringVar(&amount, "amount", "", "usual amount")
	return cmd
}

func newBillActiveCommand(rootOpts *RootOptions, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <bill-id>",
		Short: fmt.Sprintf("Mark a bill %s", activeLabel(active)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				if err := ledger.SetBillActive(ctx, args[0], active); err != nil {
					return err
				}
				res := map[string]any{"id": args[0], "active": active}
				return out.Success(res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Bill %s is %s\n", args[0], activeLabel(active))
					return err
				})
			})
		},
	}
}

func newBillsDueCommand(rootOpts *RootOptions) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Show this month's bills with due dates and payment status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(month)
			if err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				due, err := ledger.BillsDue(ctx, m)
				if err != nil {
					return err
				}
				return out.Success(due, func(w io.Writer) error {
					return writeBillsDue(w, due)
				})
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	return cmd
}

func newBillsPayCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		month, amount, date, note string
		unpaid                    bool
	)
	cmd := &cobra.Command{
		Use:   "pay <bill-id>",
		Short: "Record a bill payment for a month",
		Long: `Record that a bill was paid in a month. The paid date defaults to today and
the amount to none. --unpaid reverts the month to unpaid and clears both.

Examples:
  ledger bills pay 3f6c... --amount 950
  ledger bills pay 3f6c... --month 2024-02 --date 2024-02-03 --note "paid late"
  ledger bills pay 3f6c... --unpaid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(month)
			if err != nil {
				return err
			}
			in := services.BillPaymentInput{BillID: args[0], Month: m, Paid: !unpaid, Note: note}
			if in.PaidAmount, err = optionalMoney(cmd, "amount", amount); err != nil {
				return err
			}
			if date != "" {
				if in.PaidDate, err = rootOpts.date(date); err != nil {
					return err
				}
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				p, err := ledger.SetBillPaid(ctx, in)
				if err != nil {
					return err
				}
				return out.Success(p, func(w io.Writer) error {
					if !p.Paid {
						_, err := fmt.Fprintf(w, "Bill %s marked unpaid for %s\n", p.BillID, p.Month)
						return err
					}
					_, err := fmt.Fprintf(w, "Bill %s paid for %s on %s (%s)\n",
						p.BillID, p.Month, p.PaidDate, amountOrDash(p.PaidAmount))
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount paid")
	cmd.Flags().StringVar(&date, "date", "", "payment date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	cmd.Flags().BoolVar(&unpaid, "unpaid", false, "mark the bill unpaid instead")
	return cmd
}

func writeBillsDue(w io.Writer, due []core.BillDue) error {
	rows := make([][]string, 0, len(due))
	for _, d := range due {
		amount := d.Payment.PaidAmount
		if amount == nil {
			amount = d.Bill.DefaultAmount
		}
		rows = append(rows, []string{
			orDash(d.DueDate.String()), d.OwnerName, d.Bill.Name, amountOrDash(amount),
			string(d.Status), orDash(d.Payment.PaidDate.String()), d.Bill.ID,
		})
	}
	return writeTable(w, []string{"DUE", "OWNER", "BILL", "AMOUNT", "STATUS", "PAID ON", "BILL ID"}, rows)
}

func dueDayLabel(day *int) string {
	if day == nil {
		return "-"
	}
	return strconv.Itoa(*day)
}
