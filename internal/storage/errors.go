package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"homeledger/internal/core"
)

// classify maps engine errors onto the ledger's error vocabulary. Constraint
// failures become *core.ConstraintError and missing rows become
// core.ErrNotFound. Anything else is returned unchanged.
func classify(table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", table, core.ErrNotFound)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &core.ConstraintError{Kind: core.ConstraintUnique, Table: table, Detail: constraintDetail(err), Err: err}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &core.ConstraintError{Kind: core.ConstraintReference, Table: table, Err: err}
		}
	}

	// Fall back on the engine's message for wrapped or non-extended codes.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return &core.ConstraintError{Kind: core.ConstraintUnique, Table: table, Detail: constraintDetail(err), Err: err}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &core.ConstraintError{Kind: core.ConstraintReference, Table: table, Err: err}
	}
	return err
}

// constraintDetail extracts the column list from "UNIQUE constraint failed: t.a, t.b".
func constraintDetail(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, "constraint failed: "); i >= 0 {
		detail := msg[i+len("constraint failed: "):]
		if j := strings.Index(detail, " ("); j >= 0 {
			detail = detail[:j]
		}
		return strings.TrimSpace(detail)
	}
	return ""
}

// expectAffected turns a zero-row UPDATE or DELETE into core.ErrNotFound.
func expectAffected(table string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", table, core.ErrNotFound)
	}
	return nil
}
