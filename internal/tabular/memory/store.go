// Package memory provides an in-memory TableStore for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Store keeps table groups as nested maps of rows.
type Store struct {
	mu     sync.RWMutex
	groups map[string]string
	tables map[string]map[string][][]any
	nextID int
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		groups: make(map[string]string),
		tables: make(map[string]map[string][][]any),
	}
}

// FindOrCreateGroup returns a stable ID for the named group.
func (s *Store) FindOrCreateGroup(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.groups[name]; ok {
		return id, nil
	}
	s.nextID++
	id := fmt.Sprintf("mem-group-%d", s.nextID)
	s.groups[name] = id
	s.tables[id] = make(map[string][][]any)
	return id, nil
}

// EnsureTable creates the table with its header row when absent.
func (s *Store) EnsureTable(_ context.Context, groupID, table string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.tables[groupID]
	if !ok {
		return fmt.Errorf("group %s not found", groupID)
	}
	if _, ok := group[table]; ok {
		return nil
	}
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	group[table] = [][]any{row}
	return nil
}

// ReadColumn returns the values of one column, header row excluded.
func (s *Store) ReadColumn(_ context.Context, groupID, table string, col int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.rowsLocked(groupID, table)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			out = append(out, fmt.Sprint(row[col]))
		}
	}
	return out, nil
}

// AppendRow appends one row after the current last row.
func (s *Store) AppendRow(_ context.Context, groupID, table string, row []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.rowsLocked(groupID, table)
	if err != nil {
		return err
	}
	s.tables[groupID][table] = append(rows, row)
	return nil
}

// Rows returns a copy of all rows of a table, header included.
func (s *Store) Rows(groupID, table string) [][]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.rowsLocked(groupID, table)
	if err != nil {
		return nil
	}
	out := make([][]any, len(rows))
	copy(out, rows)
	return out
}

func (s *Store) rowsLocked(groupID, table string) ([][]any, error) {
	group, ok := s.tables[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s not found", groupID)
	}
	rows, ok := group[table]
	if !ok {
		return nil, fmt.Errorf("table %s not found in group %s", table, groupID)
	}
	return rows, nil
}
