package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fintrack/internal/core"
)

func TestEventRow(t *testing.T) {
	ev := core.LedgerEvent{
		Kind:          core.EventPosted,
		TransactionID: 12,
		OwnerID:       3,
		AccountName:   "Wallet",
		CategoryName:  "Food",
		Type:          core.Expense,
		AmountCents:   1250,
		Date:          time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Description:   "=HYPERLINK(\"x\")",
		OccurredAt:    time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC),
	}

	row := EventRow(ev)
	assert.Len(t, row, len(Header))
	assert.Equal(t, "2024-05-02T10:30:00Z", row[0])
	assert.Equal(t, "2024-05-02", row[4])
	assert.Equal(t, "-12.50", row[8])
	assert.Equal(t, "'=HYPERLINK(\"x\")", row[9])

	ev.Kind = core.EventDeleted
	assert.Equal(t, "12.50", EventRow(ev)[8])
}

func TestParseRowKey(t *testing.T) {
	tests := []struct {
		name string
		row  []any
		want RowKey
		ok   bool
	}{
		{"posted", []any{"t", "transaction.posted", "5"}, RowKey{core.EventPosted, 5}, true},
		{"numeric id", []any{"t", "transaction.deleted", float64(9)}, RowKey{core.EventDeleted, 9}, true},
		{"header", Header, RowKey{}, false},
		{"short", []any{"t"}, RowKey{}, false},
		{"bad id", []any{"t", "transaction.posted", "x"}, RowKey{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRowKey(tt.row)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
