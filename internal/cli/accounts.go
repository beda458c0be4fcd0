package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"homeledger/internal/core"
	"homeledger/internal/services"
)

// NewAccountsCommand creates the accounts command group.
func NewAccountsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage credit cards and loans and their monthly snapshots",
	}

	cmd.AddCommand(newAccountsListCommand(rootOpts))
	cmd.AddCommand(newAccountsAddCommand(rootOpts))
	cmd.AddCommand(newAccountActiveCommand(rootOpts, "activate", true))
	cmd.AddCommand(newAccountActiveCommand(rootOpts, "deactivate", false))
	cmd.AddCommand(newAccountsSnapshotCommand(rootOpts))
	cmd.AddCommand(newAccountsSnapshotsCommand(rootOpts))
	cmd.AddCommand(newAccountsPositionsCommand(rootOpts))
	return cmd
}

func newAccountsListCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts by owner and type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				accounts, err := ledger.ListAccounts(ctx, !all)
				if err != nil {
					return err
				}
				names, err := ownerNames(ctx, ledger)
				if err != nil {
					return err
				}
				return out.Success(accounts, func(w io.Writer) error {
					rows := make([][]string, 0, len(accounts))
					for _, a := range accounts {
						rows = append(rows, []string{
							names[a.OwnerID], a.Name, string(a.Type), amountOrDash(a.APR),
							amountOrDash(a.CreditLimit), amountOrDash(a.StartBalance), activeLabel(a.Active), a.ID,
						})
					}
					return writeTable(w, []string{"OWNER", "NAME", "TYPE", "APR", "LIMIT", "START", "STATUS", "ID"}, rows)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive accounts")
	return cmd
}

func newAccountsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var owner, name, typ, apr, limit, start string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a credit card or loan",
		Long: `Add a credit card or loan. Loans carry no credit limit.

Examples:
  ledger accounts add --owner "Person 1" --name Visa --type credit_card --apr 19.9 --limit 5000
  ledger accounts add --owner shared --name Mortgage --type loan --start 180000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := services.AccountInput{Name: name, Type: core.AccountType(strings.ToUpper(strings.TrimSpace(typ)))}
			var err error
			if in.APR, err = optionalMoney(cmd, "apr", apr); err != nil {
				return err
			}
			if in.CreditLimit, err = optionalMoney(cmd, "limit", limit); err != nil {
				return err
			}
			if in.StartBalance, err = optionalMoney(cmd, "start", start); err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				o, err := ledger.ResolveOwner(ctx, owner)
				if err != nil {
					return err
				}
				in.OwnerID = o.ID
				a, err := ledger.AddAccount(ctx, in)
				if err != nil {
					return err
				}
				return out.Success(a, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added %s %s for %s (%s)\n", a.Type, a.Name, o.DisplayName, a.ID)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner name or key (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&typ, "type", "", "credit_card or loan (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&apr, "apr", "", "annual percentage rate")
	cmd.Flags().StringVar(&limit, "limit", "", "credit limit (credit cards only)")
	cmd.Flags().StringVar(&start, "start", "", "starting balance")
	return cmd
}

func newAccountActiveCommand(rootOpts *RootOptions, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <account-id>",
		Short: fmt.Sprintf("Mark an account %s", activeLabel(active)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				if err := ledger.SetAccountActive(ctx, args[0], active); err != nil {
					return err
				}
				res := map[string]any{"id": args[0], "active": active}
				return out.Success(res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Account %s is %s\n", args[0], activeLabel(active))
					return err
				})
			})
		},
	}
}

func newAccountsSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	var month, balance, payment string
	cmd := &cobra.Command{
		Use:   "snapshot <account-id>",
		Short: "Record an account's balance and payment for a month",
		Long: `Record an account's balance and payment for a month. Recording the same
month again replaces the earlier values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(month)
			if err != nil {
				return err
			}
			bal, err := requiredMoney("balance", balance)
			if err != nil {
				return err
			}
			pay := 0.0
			if cmd.Flags().Changed("payment") {
				if pay, err = requiredMoney("payment", payment); err != nil {
					return err
				}
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				snap, err := ledger.RecordSnapshot(ctx, args[0], m, bal, pay)
				if err != nil {
					return err
				}
				return out.Success(snap, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Snapshot %s: balance %s, payment %s\n",
						snap.Month, core.FormatAmount(snap.Balance), core.FormatAmount(snap.Payment))
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().StringVar(&balance, "balance", "", "balance owed at month end (required)")
	_ = cmd.MarkFlagRequired("balance")
	cmd.Flags().StringVar(&payment, "payment", "", "payment made during the month")
	return cmd
}

func newAccountsSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots <account-id>",
		Short: "List an account's snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				snaps, err := ledger.ListSnapshots(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Success(snaps, func(w io.Writer) error {
					rows := make([][]string, 0, len(snaps))
					for _, s := range snaps {
						rows = append(rows, []string{string(s.Month), core.FormatAmount(s.Balance), core.FormatAmount(s.Payment)})
					}
					return writeTable(w, []string{"MONTH", "BALANCE", "PAYMENT"}, rows)
				})
			})
		},
	}
}

func newAccountsPositionsCommand(rootOpts *RootOptions) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show each active account's snapshot next to the previous one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(month)
			if err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				positions, err := ledger.AccountPositions(ctx, m)
				if err != nil {
					return err
				}
				return out.Success(positions, func(w io.Writer) error {
					rows := make([][]string, 0, len(positions))
					for _, p := range positions {
						rows = append(rows, []string{
							p.OwnerName, p.Account.Name, string(p.Account.Type),
							snapshotBalance(p.Current), snapshotBalance(p.Previous), balanceChange(p),
						})
					}
					return writeTable(w, []string{"OWNER", "ACCOUNT", "TYPE", "BALANCE", "PREVIOUS", "CHANGE"}, rows)
				})
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	return cmd
}

func snapshotBalance(s *core.AccountSnapshot) string {
	if s == nil {
		return "-"
	}
	return core.FormatAmount(s.Balance)
}

func balanceChange(p core.AccountPosition) string {
	if p.Current == nil || p.Previous == nil {
		return "-"
	}
	return core.FormatAmount(core.RoundCents(p.Current.Balance - p.Previous.Balance))
}
