package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-3,5", -350, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParsePositiveMoney(t *testing.T) {
	for _, in := range []string{"0", "0.004", "-1"} {
		if _, err := ParsePositiveMoney(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
	m, err := ParsePositiveMoney("0.005")
	if err != nil || m.Cents != 1 {
		t.Fatalf("expected 1 cent, got %d (err=%v)", m.Cents, err)
	}
}

func TestMoneyAddChecked(t *testing.T) {
	top := Money{Cents: math.MaxInt64 - 50}
	if m, err := top.AddChecked(Money{Cents: 50}); err != nil || m.Cents != math.MaxInt64 {
		t.Fatalf("expected max cents, got %d (err=%v)", m.Cents, err)
	}
	if _, err := top.AddChecked(Money{Cents: 51}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	bottom := Money{Cents: math.MinInt64 + 10}
	if _, err := bottom.AddChecked(Money{Cents: -11}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if m, err := top.AddChecked(top.Neg()); err != nil || !m.IsZero() {
		t.Fatalf("expected zero, got %d (err=%v)", m.Cents, err)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(NewMoney(1000, 0))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"1000.00"` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var fromNumber, fromString Money
	if err := json.Unmarshal([]byte(`12.5`), &fromNumber); err != nil || fromNumber.Cents != 1250 {
		t.Fatalf("number decode: %d %v", fromNumber.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"12,50"`), &fromString); err != nil || fromString.Cents != 1250 {
		t.Fatalf("string decode: %d %v", fromString.Cents, err)
	}
	if err := json.Unmarshal([]byte(`null`), &fromString); err == nil {
		t.Fatalf("expected error decoding null")
	}
}

func TestMoneyString(t *testing.T) {
	if s := (Money{Cents: -80}).String(); s != "-0.80" {
		t.Fatalf("got %q", s)
	}
	if s := NewMoney(800, 0).String(); s != "800.00" {
		t.Fatalf("got %q", s)
	}
}

func TestTotals(t *testing.T) {
	txs := []Transaction{
		{Type: Income, Amount: NewMoney(1000, 0)},
		{Type: Expense, Amount: NewMoney(200, 0)},
		{Type: Expense, Amount: NewMoney(0, 50)},
	}
	mt := Totals(2024, 1, txs)
	if mt.Income.Cents != 100000 || mt.Expense.Cents != 20050 || mt.Net.Cents != 79950 {
		t.Fatalf("unexpected totals %+v", mt)
	}
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC))
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if end.Month() != time.February || end.Day() != 29 {
		t.Fatalf("end = %v", end)
	}
}
