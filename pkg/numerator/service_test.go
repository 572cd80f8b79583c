package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // Simulates DB sequence value
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	// strict passes (key); cached passes (key, increment)
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.calls++
	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

func TestNextValue_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := svc.NextValue(ctx, "RESTAURANT_POS_4")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
	if q.calls != 3 {
		t.Errorf("expected one query per value, got %d", q.calls)
	}
}

func TestNextValue_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := NewWithQuerier(func(context.Context) Querier { return q }, &Options{
		Strategy:  StrategyCached,
		RangeSize: 10,
	})
	ctx := context.Background()

	// First call reserves 1..10.
	got, err := svc.NextValue(ctx, "ORD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to be 10, got %d", q.currentValue)
	}

	// Served from memory until the range is exhausted.
	for i := 0; i < 9; i++ {
		if _, err := svc.NextValue(ctx, "ORD"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.calls != 1 {
		t.Errorf("expected a single reservation, got %d", q.calls)
	}

	got, err = svc.NextValue(ctx, "ORD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 11 {
		t.Errorf("expected 11, got %d", got)
	}
	if q.currentValue != 20 {
		t.Errorf("expected DB value to be 20, got %d", q.currentValue)
	}
}

func TestNextValue_NilService(t *testing.T) {
	var svc *Service
	if _, err := svc.NextValue(context.Background(), "X"); err == nil {
		t.Fatal("expected error from nil service")
	}
}

func TestFormatOrderNumber(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 5, 7, 0, time.UTC)

	got := FormatOrderNumber("POS_2", ts)
	if got != "CMD-POS_2-20260314090507" {
		t.Fatalf("unexpected number %s", got)
	}

	code, parsed, err := ParseOrderNumber(got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "POS_2" || !parsed.Equal(ts) {
		t.Errorf("parsed %s %s", code, parsed)
	}
}

func TestParseOrderNumber_Malformed(t *testing.T) {
	for _, s := range []string{"", "CMD-", "INV-POS_2-20260314090507", "CMD-POS_2-2026"} {
		if _, _, err := ParseOrderNumber(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}
