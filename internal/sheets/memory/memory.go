// Package memory is the in-process statement sink used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"moliya/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.StatementRow
}

var _ sheets.StatementAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row sheets.StatementRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.StatementRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.StatementRow(nil), s.rows...)
}
