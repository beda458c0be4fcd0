package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUniqueViolation matches inserts or updates that duplicate a unique key.
	ErrUniqueViolation = errors.New("uniqueness violation")
	// ErrReferenceViolation matches writes referencing a missing parent row and
	// deletes of rows that still have dependents.
	ErrReferenceViolation = errors.New("referential integrity violation")
	ErrNotFound           = errors.New("not found")
	ErrMonthClosed        = errors.New("month is closed")
)

type ConstraintKind string

const (
	ConstraintUnique    ConstraintKind = "unique"
	ConstraintReference ConstraintKind = "reference"
)

// ConstraintError is returned by storage when the engine rejects a write.
type ConstraintError struct {
	Kind   ConstraintKind
	Table  string
	Detail string
	Err    error
}

func (e *ConstraintError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s on %s: %s", e.sentinel(), e.Table, e.Detail)
	}
	return fmt.Sprintf("%s on %s", e.sentinel(), e.Table)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

func (e *ConstraintError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *ConstraintError) sentinel() error {
	if e.Kind == ConstraintReference {
		return ErrReferenceViolation
	}
	return ErrUniqueViolation
}

// MonthClosedError lists the closed periods a write touched.
type MonthClosedError struct {
	Months []Month
}

func (e *MonthClosedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMonthClosed, e.Months)
}

func (e *MonthClosedError) Is(target error) bool {
	return target == ErrMonthClosed
}
