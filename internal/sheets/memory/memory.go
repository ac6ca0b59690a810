// Package memory is an in-process LedgerMirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

var _ sheets.LedgerMirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows [][]any
	seen map[sheets.RowKey]struct{}
}

func New() *Mirror {
	return &Mirror{
		rows: [][]any{sheets.Header},
		seen: make(map[sheets.RowKey]struct{}),
	}
}

func (m *Mirror) MirrorEvent(ctx context.Context, ev core.LedgerEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sheets.ValidateEvent(ev); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sheets.KeyOf(ev)
	if _, ok := m.seen[key]; ok {
		return nil
	}
	m.seen[key] = struct{}{}
	m.rows = append(m.rows, sheets.EventRow(ev))
	return nil
}

// Rows returns a copy of every row, header included.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.rows))
	copy(out, m.rows)
	return out
}

// Len reports the number of mirrored events.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows) - 1
}
