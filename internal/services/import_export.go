package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"homeledger/internal/core"
	"homeledger/internal/log"
	"homeledger/internal/storage"
)

// ExportHeader is the column layout shared by CSV export and import.
var ExportHeader = []string{"txn_date", "owner", "category", "amount", "description"}

const xlsxSheet = "Transactions"

// ErrInvalidImport is matched by every *ImportError.
var ErrInvalidImport = errors.New("invalid import")

// RowProblem describes one rejected CSV row. Row counts the header as row 1.
type RowProblem struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// ImportError lists every problem found in a CSV file. Nothing is imported
// when it is returned.
type ImportError struct {
	MissingColumns []string     `json:"missing_columns,omitempty"`
	Problems       []RowProblem `json:"problems,omitempty"`
}

func (e *ImportError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("%s: missing required columns %v", ErrInvalidImport, e.MissingColumns)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problem(s)", ErrInvalidImport, len(e.Problems))
	for _, p := range e.Problems {
		fmt.Fprintf(&b, "\n  row %d %s %q: %s", p.Row, p.Column, p.Value, p.Reason)
	}
	return b.String()
}

func (e *ImportError) Unwrap() error {
	return ErrInvalidImport
}

// ExportRows returns active transactions with owner and category names in
// ascending date order. An empty month exports all of them.
func (s *LedgerService) ExportRows(ctx context.Context, month core.Month) ([]core.LedgerRow, error) {
	if month != "" {
		if err := month.Validate(); err != nil {
			return nil, err
		}
	}
	return s.storage.ExportRows(ctx, month)
}

// ExportCSV writes the export rows as CSV and returns the number of data rows.
func (s *LedgerService) ExportCSV(ctx context.Context, w io.Writer, month core.Month) (int, error) {
	rows, err := s.ExportRows(ctx, month)
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Date, r.Owner, r.Category, core.FormatAmount(r.Amount), r.Description}); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	s.logger.InfoContext(ctx, "Transactions exported",
		log.NewFields().WithOperation(log.OpExport).WithMonth(month).WithRows(len(rows)).ToSlice()...)
	return len(rows), nil
}

// ExportXLSX writes the export rows as a single-sheet workbook.
func (s *LedgerService) ExportXLSX(ctx context.Context, w io.Writer, month core.Month) (int, error) {
	rows, err := s.ExportRows(ctx, month)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return 0, fmt.Errorf("write xlsx header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		values := []any{r.Date, r.Owner, r.Category, r.Amount, r.Description}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return 0, fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}
	for _, col := range []struct {
		from, to string
		width    float64
	}{{"A", "A", 12}, {"B", "C", 16}, {"D", "D", 12}, {"E", "E", 40}} {
		if err := f.SetColWidth(xlsxSheet, col.from, col.to, col.width); err != nil {
			return 0, fmt.Errorf("set xlsx column width %s:%s: %w", col.from, col.to, err)
		}
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("write xlsx: %w", err)
	}
	return len(rows), nil
}

// ImportResult summarises a successful import.
type ImportResult struct {
	Imported          int          `json:"imported"`
	Months            []core.Month `json:"months"`
	CreatedCategories []string     `json:"created_categories,omitempty"`
}

type importRow struct {
	date        core.Date
	owner       string
	ownerID     string
	category    string
	amount      float64
	description string
}

// ImportCSV validates every row of r and then inserts all transactions in a
// single database transaction. Owners must match an existing display name or
// system key; missing categories are created. Rows dated in closed months
// are rejected unless ctx carries AllowClosedMonth.
func (s *LedgerService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	records, err := readCSV(r)
	if err != nil {
		return ImportResult{}, err
	}
	if len(records) == 0 {
		return ImportResult{}, &ImportError{MissingColumns: []string{"txn_date", "owner", "category", "amount"}}
	}

	cols, missing := importColumns(records[0])
	if len(missing) > 0 {
		return ImportResult{}, &ImportError{MissingColumns: missing}
	}

	owners, err := s.storage.ListOwners(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	var (
		rows     []importRow
		problems []RowProblem
		months   = map[core.Month]bool{}
	)
	for i, rec := range records[1:] {
		rowNum := i + 2
		if blankRecord(rec) {
			continue
		}
		get := func(col string) string {
			idx, ok := cols[col]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}

		row := importRow{owner: get("owner"), category: get("category"), description: get("description")}
		rowOK := true

		rawDate := get("txn_date")
		if d, err := core.ParseDate(rawDate); err != nil {
			problems = append(problems, RowProblem{Row: rowNum, Column: "txn_date", Value: rawDate, Reason: "not YYYY-MM-DD"})
			rowOK = false
		} else {
			row.date = d
		}

		rawAmount := get("amount")
		if amt, err := core.ParseAmount(rawAmount); err != nil {
			problems = append(problems, RowProblem{Row: rowNum, Column: "amount", Value: rawAmount, Reason: "missing, zero or not a number"})
			rowOK = false
		} else {
			row.amount = amt
		}

		if o, ok := matchOwner(owners, row.owner); ok {
			row.ownerID = o.ID
		} else {
			problems = append(problems, RowProblem{Row: rowNum, Column: "owner", Value: row.owner, Reason: "no owner with this name or key"})
			rowOK = false
		}

		if row.category == "" {
			problems = append(problems, RowProblem{Row: rowNum, Column: "category", Reason: "empty"})
			rowOK = false
		}

		if rowOK {
			rows = append(rows, row)
			months[row.date.Period()] = true
		}
	}
	if len(problems) > 0 {
		return ImportResult{}, &ImportError{Problems: problems}
	}

	touched := make([]core.Month, 0, len(months))
	for m := range months {
		touched = append(touched, m)
	}
	sort.Slice(touched, func(i, j int) bool { return touched[i] < touched[j] })
	if err := s.ensureOpen(ctx, touched...); err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Months: touched}
	now := s.stamp()
	err = s.storage.InTx(ctx, func(tx *storage.SQLiteRepository) error {
		categoryIDs := map[string]string{}
		txns := make([]core.Transaction, 0, len(rows))
		for _, row := range rows {
			key := strings.ToLower(row.category)
			catID, ok := categoryIDs[key]
			if !ok {
				c, err := tx.FindCategoryByName(ctx, row.category)
				if errors.Is(err, core.ErrNotFound) {
					c, err = getOrCreateCategory(ctx, tx, row.category, now)
					if err == nil {
						res.CreatedCategories = append(res.CreatedCategories, c.Name)
					}
				}
				if err != nil {
					return err
				}
				catID = c.ID
				categoryIDs[key] = catID
			}
			txns = append(txns, core.Transaction{
				ID:          core.NewID(),
				Date:        row.date,
				OwnerID:     row.ownerID,
				CategoryID:  catID,
				Description: row.description,
				Amount:      row.amount,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		return tx.CreateTransactions(ctx, txns)
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import transactions: %w", err)
	}
	res.Imported = len(rows)

	s.logger.InfoContext(ctx, "Transactions imported",
		log.NewFields().WithOperation(log.OpImport).WithRows(res.Imported).ToSlice()...)
	event := core.Event{Kind: core.EventTransactionsImported, Count: res.Imported}
	if len(touched) == 1 {
		event.Month = touched[0]
	}
	s.publish(ctx, event)
	return res, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// importColumns maps lower-cased header names to indexes. "date" is accepted
// for txn_date.
func importColumns(header []string) (map[string]int, []string) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	if _, ok := cols["txn_date"]; !ok {
		if idx, ok := cols["date"]; ok {
			cols["txn_date"] = idx
		}
	}
	var missing []string
	for _, req := range []string{"txn_date", "owner", "category", "amount"} {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	return cols, missing
}

func matchOwner(owners []core.Owner, label string) (core.Owner, bool) {
	if label == "" {
		return core.Owner{}, false
	}
	for _, o := range owners {
		if strings.EqualFold(o.DisplayName, label) || strings.EqualFold(o.SystemKey, label) {
			return o, true
		}
	}
	return core.Owner{}, false
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
