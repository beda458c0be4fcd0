package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	ports "homeledger/internal/sheets"
)

// Store keeps appended rows per sheet. It stands in for Google Sheets in
// tests and when no spreadsheet is configured.
type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	fail   error
}

var _ ports.RowAppender = (*Store)(nil)

func New() *Store {
	return &Store{sheets: make(map[string][][]any)}
}

// FailWith makes every later append return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// AppendRows stores copies of rows and returns a synthetic A1 reference.
func (s *Store) AppendRows(_ context.Context, sheet string, rows [][]any) (string, error) {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return "", errors.New("missing sheet name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	if len(rows) == 0 {
		return "", nil
	}
	start := len(s.sheets[sheet]) + 1
	for _, r := range rows {
		s.sheets[sheet] = append(s.sheets[sheet], append([]any(nil), r...))
	}
	return fmt.Sprintf("mem:%s!A%d:A%d", sheet, start, len(s.sheets[sheet])), nil
}

// Rows returns a copy of the rows appended to sheet.
func (s *Store) Rows(sheet string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.sheets[sheet]))
	copy(out, s.sheets[sheet])
	return out
}

// Sheets lists the sheets that received at least one row.
func (s *Store) Sheets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.sheets))
	for name := range s.sheets {
		names = append(names, name)
	}
	return names
}
