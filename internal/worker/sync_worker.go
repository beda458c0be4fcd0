package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"homeledger/internal/cache"
	"homeledger/internal/core"
	"homeledger/internal/log"
	"homeledger/internal/sheets"
)

// MonthSource reads the closed-month data pushed to the spreadsheet.
// *services.LedgerService satisfies it.
type MonthSource interface {
	ExportRows(ctx context.Context, month core.Month) ([]core.LedgerRow, error)
	BillsDue(ctx context.Context, month core.Month) ([]core.BillDue, error)
}

const (
	syncedMarkers   = 256
	syncedMarkerTTL = 7 * 24 * time.Hour
)

// SyncWorker copies a month's transactions and bill payments to a
// spreadsheet once the month is closed.
type SyncWorker struct {
	source            MonthSource
	sheets            sheets.RowAppender
	transactionsSheet string
	billsSheet        string
	logger            *log.Logger

	// synced maps "<month>|<sheet>" to the range already appended, so a
	// redelivered event only retries the sheets that failed.
	synced *cache.LRUCache[string]
}

func NewSyncWorker(source MonthSource, appender sheets.RowAppender, transactionsSheet, billsSheet string, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentWorker})
	}
	return &SyncWorker{
		source:            source,
		sheets:            appender,
		transactionsSheet: transactionsSheet,
		billsSheet:        billsSheet,
		logger:            logger,
		synced:            cache.NewLRUCache[string](syncedMarkers, syncedMarkerTTL),
	}
}

// HandleEvent processes one ledger event. Only month.closed triggers a sync;
// every other kind is acknowledged without work.
func (w *SyncWorker) HandleEvent(ctx context.Context, e core.Event) error {
	if e.Kind != core.EventMonthClosed {
		w.logger.DebugContext(ctx, "Ignoring event", log.NewFields().WithEvent(e).ToSlice()...)
		return nil
	}
	if err := e.Month.Validate(); err != nil {
		return fmt.Errorf("month.closed event: %w", err)
	}
	return w.SyncMonth(ctx, e.Month)
}

// SyncMonth appends the month's transactions and bill payments to their
// year-prefixed sheets. The two reads run concurrently. A sheet that was
// already appended for month is skipped, so calling SyncMonth again after a
// partial failure does not duplicate rows.
func (w *SyncWorker) SyncMonth(ctx context.Context, month core.Month) error {
	start := time.Now()
	fields := log.NewFields().WithOperation(log.OpSync).WithMonth(month)
	w.logger.InfoContext(ctx, "Syncing closed month", fields.ToSlice()...)

	var (
		rows  []core.LedgerRow
		bills []core.BillDue
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = w.source.ExportRows(gctx, month)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bills, err = w.source.BillsDue(gctx, month)
		if err != nil {
			return fmt.Errorf("load bill payments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("sync %s: %w", month, err)
	}

	first, err := month.Start()
	if err != nil {
		return err
	}
	year := first.Year()

	txnSheet := sheets.YearPrefixedName(w.transactionsSheet, year)
	ref, err := w.appendOnce(ctx, month, txnSheet, transactionRows(rows))
	if err != nil {
		return fmt.Errorf("append transactions for %s: %w", month, err)
	}
	w.logger.InfoContext(ctx, "Appended transactions",
		append(log.NewFields().WithMonth(month).WithRows(len(rows)).ToSlice(),
			log.FieldSheet, txnSheet, log.FieldSheetsRef, ref)...,
	)

	billSheet := sheets.YearPrefixedName(w.billsSheet, year)
	if _, err := w.appendOnce(ctx, month, billSheet, billRows(month, bills)); err != nil {
		return fmt.Errorf("append bill payments for %s: %w", month, err)
	}

	w.logger.InfoContext(ctx, "Closed month synced",
		fields.WithRows(len(rows)+len(bills)).ToSlice()...,
	)
	w.logger.DebugContext(ctx, "Sync timing", log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (w *SyncWorker) appendOnce(ctx context.Context, month core.Month, sheet string, rows [][]any) (string, error) {
	key := string(month) + "|" + sheet
	if ref, ok := w.synced.Get(key); ok {
		w.logger.InfoContext(ctx, "Sheet already synced for month, skipping",
			append(log.NewFields().WithMonth(month).ToSlice(), log.FieldSheet, sheet, log.FieldSheetsRef, ref)...)
		return ref, nil
	}
	ref, err := w.sheets.AppendRows(ctx, sheet, rows)
	if err != nil {
		return "", err
	}
	w.synced.Set(key, ref)
	return ref, nil
}

func transactionRows(rows []core.LedgerRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{r.Date, r.Owner, r.Category, r.Amount, r.Description})
	}
	return out
}

func billRows(month core.Month, bills []core.BillDue) [][]any {
	out := make([][]any, 0, len(bills))
	for _, b := range bills {
		var amount any = ""
		if b.Payment.PaidAmount != nil {
			amount = *b.Payment.PaidAmount
		} else if b.Bill.DefaultAmount != nil {
			amount = *b.Bill.DefaultAmount
		}
		out = append(out, []any{
			string(month), b.OwnerName, b.Bill.Name, b.DueDate.String(),
			b.Payment.Paid, amount, b.Payment.PaidDate.String(), b.Payment.Note,
		})
	}
	return out
}
