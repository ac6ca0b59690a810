package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newJSONLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentLedger, Writer: buf})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf)
	l.InfoContext(context.Background(), "hello", FieldOwnerID, 7)
	l.WithComponent(ComponentAuth).Warn("careful")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, ComponentLedger, lines[0][FieldComponent])
	assert.EqualValues(t, 7, lines[0][FieldOwnerID])
	assert.Equal(t, ComponentAuth, lines[1][FieldComponent])
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf).With(FieldRequestID, "req-1")
	ctx := NewContext(context.Background(), l)
	FromContext(ctx).InfoContext(ctx, "inside")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-1", lines[0][FieldRequestID])
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&buf))
	r := httptest.NewRequest(http.MethodPost, "/api/transactions?type=INCOME", nil)

	sl.LogHTTPEnd(context.Background(), r, 201, 3, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, 404, 1, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, 500, 1, "127.0.0.1")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, "ERROR", lines[2]["level"])
	assert.Equal(t, "type=INCOME", lines[0][FieldQuery])
	assert.Equal(t, ComponentHTTP, lines[0][FieldComponent])
}

func TestLogErrorIncludesKind(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&buf))
	sl.LogError(context.Background(), "post failed", core.NotFound("account"), ComponentLedger, OpCreate, nil)
	sl.LogError(context.Background(), "io", errors.New("disk"), ComponentStorage, OpRead, NewFields().WithOwner(3))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "not found", lines[0][FieldErrorKind])
	assert.Nil(t, lines[1][FieldErrorKind])
	assert.EqualValues(t, 3, lines[1][FieldOwnerID])
}

func TestLogTransactionPosted(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&buf))
	sl.LogTransactionPosted(context.Background(), 9, core.Transaction{ID: 4, AccountID: 2, Amount: core.NewMoney(1, 0), Type: core.Income})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 100, lines[0][FieldAmountCents])
	assert.Equal(t, "INCOME", lines[0][FieldTxType])
}
