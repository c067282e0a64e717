package sequence

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"stockbook/internal/core/apperror"
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

// mockQuerier simulates the sys_sequences row with CAS semantics.
type mockQuerier struct {
	mu     sync.Mutex
	exists bool
	value  int64
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case strings.Contains(sql, "SELECT current_val"):
		if !m.exists {
			return &mockRow{err: pgx.ErrNoRows}
		}
		return &mockRow{val: m.value}

	case strings.Contains(sql, "WHERE sys_sequences.current_val"):
		// Conditional upsert: args are (key, to, from).
		to := args[1].(int64)
		from := args[2].(int64)
		if !m.exists {
			m.exists = true
			m.value = to
			return &mockRow{val: to}
		}
		if m.value != from {
			return &mockRow{err: pgx.ErrNoRows}
		}
		m.value = to
		return &mockRow{val: to}

	default:
		// Unconditional upsert: args are (key, value).
		m.exists = true
		m.value = args[1].(int64)
		return &mockRow{val: m.value}
	}
}

func TestCurrentDefaultsWhenUnpersisted(t *testing.T) {
	svc := New(&mockQuerier{}, 0)

	val, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != DefaultStart {
		t.Errorf("expected %d, got %d", DefaultStart, val)
	}
}

func TestCurrentCustomStart(t *testing.T) {
	svc := New(&mockQuerier{}, 3000)

	val, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 3000 {
		t.Errorf("expected 3000, got %d", val)
	}
}

func TestAdvancePersistsAndReads(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q, 0)
	ctx := context.Background()

	if err := svc.Advance(ctx, DefaultStart, DefaultStart+3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != DefaultStart+3 {
		t.Errorf("expected %d, got %d", DefaultStart+3, val)
	}
}

func TestAdvanceRejectsBackwards(t *testing.T) {
	svc := New(&mockQuerier{}, 0)

	err := svc.Advance(context.Background(), 2000, 1999)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestAdvanceDetectsConcurrentModification(t *testing.T) {
	q := &mockQuerier{exists: true, value: 2500}
	svc := New(q, 0)

	err := svc.Advance(context.Background(), 1901, 1905)
	if err == nil {
		t.Fatal("expected concurrent modification error")
	}
	if !apperror.IsConcurrentModification(err) {
		t.Errorf("expected CONCURRENT_MODIFICATION, got %v", err)
	}
	if q.value != 2500 {
		t.Errorf("counter must stay at 2500, got %d", q.value)
	}
}

func TestSetOverwritesUnconditionally(t *testing.T) {
	q := &mockQuerier{exists: true, value: 2500}
	svc := New(q, 0)
	ctx := context.Background()

	if err := svc.Set(ctx, 1901); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 1901 {
		t.Errorf("expected 1901, got %d", val)
	}
}

func TestSetRejectsNonPositive(t *testing.T) {
	svc := New(&mockQuerier{}, 0)

	if err := svc.Set(context.Background(), 0); err == nil {
		t.Error("expected validation error for zero")
	}
	if err := svc.Set(context.Background(), -5); err == nil {
		t.Error("expected validation error for negative")
	}
}
