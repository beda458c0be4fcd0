package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"homeledger/internal/core"
	"homeledger/internal/services"
)

// MonthStatus is reported by month status.
type MonthStatus struct {
	Month   core.Month         `json:"month"`
	Closed  bool               `json:"closed"`
	Closing *core.MonthClosing `json:"closing,omitempty"`
}

// NewMonthCommand creates the month command group.
func NewMonthCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Close months and inspect closings",
		Long: `Closing a month freezes it: later writes dated in that month are rejected
unless --force is given. Closing is idempotent.`,
	}

	var note string
	closeCmd := &cobra.Command{
		Use:   "close <YYYY-MM>",
		Short: "Close a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.month(args[0])
			if err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				closing, created, err := ledger.CloseMonth(ctx, m, note)
				if err != nil {
					return err
				}
				res := map[string]any{"closing": closing, "created": created}
				return out.Success(res, func(w io.Writer) error {
					if !created {
						_, err := fmt.Fprintf(w, "%s was already closed on %s\n", closing.Month, closing.ClosedAt.Format(time.DateOnly))
						return err
					}
					_, err := fmt.Fprintf(w, "Closed %s\n", closing.Month)
					return err
				})
			})
		},
	}
	closeCmd.Flags().StringVar(&note, "note", "", "note stored with the closing")
	cmd.AddCommand(closeCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status [YYYY-MM]",
		Short: "Show whether a month is closed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			m, err := rootOpts.month(raw)
			if err != nil {
				return err
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				status := MonthStatus{Month: m}
				closing, err := ledger.GetClosing(ctx, m)
				switch {
				case errors.Is(err, core.ErrNotFound):
				case err != nil:
					return err
				default:
					status.Closed = true
					status.Closing = &closing
				}
				return out.Success(status, func(w io.Writer) error {
					if !status.Closed {
						_, err := fmt.Fprintf(w, "%s is open\n", m)
						return err
					}
					_, err := fmt.Fprintf(w, "%s closed on %s %s\n", m, closing.ClosedAt.Format(time.DateOnly), closing.Note)
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "closings",
		Short: "List closed months, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				closings, err := ledger.ListClosings(ctx)
				if err != nil {
					return err
				}
				return out.Success(closings, func(w io.Writer) error {
					rows := make([][]string, 0, len(closings))
					for _, c := range closings {
						rows = append(rows, []string{string(c.Month), c.ClosedAt.Format(time.DateTime), orDash(c.Note)})
					}
					return writeTable(w, []string{"MONTH", "CLOSED AT", "NOTE"}, rows)
				})
			})
		},
	})

	var limit int
	known := &cobra.Command{
		Use:   "known",
		Short: "List months holding any ledger data, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = rootOpts.Config.KnownMonthsLimit
			}
			return rootOpts.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService, out *OutputFormatter) error {
				months, err := ledger.KnownMonths(ctx, limit)
				if err != nil {
					return err
				}
				return out.Success(months, func(w io.Writer) error {
					for _, m := range months {
						if _, err := fmt.Fprintln(w, m); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
	known.Flags().IntVar(&limit, "limit", 0, "maximum months to list, 0 for all (default $KNOWN_MONTHS_LIMIT)")
	cmd.AddCommand(known)

	return cmd
}
