package usage

import (
	"context"
	"testing"
	"time"
)

func TestRecordIsIdempotentPerCall(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo)
	rec.clock = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	if err := rec.Record(context.Background(), "t1", "call-1", 300); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// Re-delivered termination webhook.
	if err := rec.Record(context.Background(), "t1", "call-1", 300); err != nil {
		t.Fatalf("duplicate must not error: %v", err)
	}

	if got := len(repo.Records()); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
	roll, ok, _ := repo.RollupFor(context.Background(), "t1", "2024-05")
	if !ok || roll.TotalSeconds != 300 || roll.CallCount != 1 {
		t.Fatalf("unexpected rollup: %+v ok=%v", roll, ok)
	}
}

func TestRecordValidation(t *testing.T) {
	rec := NewRecorder(NewMemoryRepo())
	if err := rec.Record(context.Background(), "", "c", 10); err == nil {
		t.Fatalf("expected error for missing tenant")
	}
	if err := rec.Record(context.Background(), "t1", "", 10); err == nil {
		t.Fatalf("expected error for missing call id")
	}
	if err := rec.Record(context.Background(), "t1", "c", 0); err == nil {
		t.Fatalf("expected error for zero duration")
	}
	if err := rec.Record(context.Background(), "t1", "c", -5); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}

func TestPeriodOf(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))
	// 23:30 UTC+2 is 21:30 UTC, still December.
	if got := PeriodOf(at); got != "2024-12" {
		t.Fatalf("expected 2024-12, got %q", got)
	}
}
