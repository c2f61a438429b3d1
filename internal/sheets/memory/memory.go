// Package memory is an in-process sheets.Mirror. The worker falls back to it
// when no spreadsheet is configured.
package memory

import (
	"context"
	"slices"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

var _ ports.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows []core.Transaction
}

func New() *Mirror {
	return &Mirror{}
}

// AppendTransaction stores t unless a row with the same id exists.
func (m *Mirror) AppendTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexLocked(t.ID) >= 0 {
		return nil
	}
	m.rows = append(m.rows, t)
	return nil
}

// DeleteTransaction drops the row for id if present.
func (m *Mirror) DeleteTransaction(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexLocked(id); i >= 0 {
		m.rows = slices.Delete(m.rows, i, i+1)
	}
	return nil
}

// Rows returns a copy of the mirrored transactions in append order.
func (m *Mirror) Rows() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows)
}

func (m *Mirror) indexLocked(id int64) int {
	return slices.IndexFunc(m.rows, func(t core.Transaction) bool { return t.ID == id })
}
