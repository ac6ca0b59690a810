// Package sheets mirrors committed ledger events into a spreadsheet, one row
// per event.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// LedgerMirror records ledger events outside the database.
type LedgerMirror interface {
	// MirrorEvent appends a row for ev. Mirroring the same kind and
	// transaction twice is a no-op, so redelivered messages are harmless.
	MirrorEvent(ctx context.Context, ev core.LedgerEvent) error
}

// Header is the first row of a ledger sheet.
var Header = []any{
	"Occurred At", "Event", "Transaction", "Owner", "Date",
	"Account", "Category", "Type", "Amount", "Description",
}

// Columns is the A1 column span covered by Header.
const Columns = "A:J"

// RowKey identifies the row written for one event.
type RowKey struct {
	Kind          core.LedgerEventKind
	TransactionID int64
}

func KeyOf(ev core.LedgerEvent) RowKey {
	return RowKey{Kind: ev.Kind, TransactionID: ev.TransactionID}
}

// EventRow renders ev in Header order. Amount is the signed balance effect,
// so summing the column gives the net movement of everything mirrored.
func EventRow(ev core.LedgerEvent) []any {
	return []any{
		ev.OccurredAt.UTC().Format(time.RFC3339),
		string(ev.Kind),
		ev.TransactionID,
		ev.OwnerID,
		ev.Date.UTC().Format("2006-01-02"),
		cellText(ev.AccountName),
		cellText(ev.CategoryName),
		string(ev.Type),
		ev.Signed().String(),
		cellText(ev.Description),
	}
}

// ParseRowKey reads the key columns of a row read back from a sheet.
// Header and foreign rows report false.
func ParseRowKey(row []any) (RowKey, bool) {
	if len(row) < 3 {
		return RowKey{}, false
	}
	kind := core.LedgerEventKind(strings.TrimSpace(fmt.Sprint(row[1])))
	if kind != core.EventPosted && kind != core.EventDeleted {
		return RowKey{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[2])), 10, 64)
	if err != nil || id <= 0 {
		return RowKey{}, false
	}
	return RowKey{Kind: kind, TransactionID: id}, true
}

// ValidateEvent rejects events that cannot produce a meaningful row.
func ValidateEvent(ev core.LedgerEvent) error {
	if ev.Kind != core.EventPosted && ev.Kind != core.EventDeleted {
		return core.Validation(fmt.Sprintf("unknown event kind %q", ev.Kind))
	}
	if ev.TransactionID <= 0 {
		return core.Validation("event has no transaction id")
	}
	return nil
}

// cellText keeps user text from being evaluated as a formula.
func cellText(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
