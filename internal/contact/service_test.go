package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"call-relay/internal/provider"
)

type fakeExtractor struct {
	identity Identity
	err      error
	calls    int
}

func (f *fakeExtractor) Extract(ctx context.Context, transcript string) (Identity, error) {
	f.calls++
	return f.identity, f.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func endedCall(id, phone string) provider.Call {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)
	return provider.Call{
		ID:          id,
		OrgID:       "org1",
		Status:      "ended",
		EndedReason: "customer-ended-call",
		StartedAt:   &start,
		EndedAt:     &end,
		Customer:    &provider.Customer{Number: phone},
	}
}

func TestRecordCallEnd_CreatesContactAndHistory(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil)
	svc.clock = fixedClock(time.Date(2024, 1, 1, 0, 10, 0, 0, time.UTC))

	call := endedCall("c1", "+15551234567")
	call.Analysis = &provider.Analysis{Summary: "Resolved billing issue"}

	if err := svc.RecordCallEnd(context.Background(), "t1", call); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	c, ok, _ := repo.FindByPhone(context.Background(), "t1", "+15551234567")
	if !ok {
		t.Fatalf("contact not created")
	}
	if c.TotalCalls != 1 {
		t.Fatalf("expected total_calls 1, got %d", c.TotalCalls)
	}
	if c.LastCallAt == nil || !c.LastCallAt.Equal(*call.StartedAt) {
		t.Fatalf("last_call_at should be call start time, got %v", c.LastCallAt)
	}
	if !strings.Contains(c.ConversationSummary, "Resolved billing issue") {
		t.Fatalf("summary not rolled in: %q", c.ConversationSummary)
	}

	recs := repo.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 call record, got %d", len(recs))
	}
	if recs[0].DurationSeconds != 300 {
		t.Fatalf("expected duration 300, got %d", recs[0].DurationSeconds)
	}
	if recs[0].Outcome != "customer-ended-call" {
		t.Fatalf("expected raw ended reason as outcome, got %q", recs[0].Outcome)
	}
}

func TestRecordCallEnd_NoPhoneIsNoop(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil)

	call := endedCall("c1", "")
	call.Customer = nil
	if err := svc.RecordCallEnd(context.Background(), "t1", call); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(repo.Records()) != 0 {
		t.Fatalf("expected no history for phoneless call")
	}
}

func TestRollingSummaryNeverExceedsFiveEntries(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil)

	for i := 0; i < 8; i++ {
		call := endedCall(fmt.Sprintf("c%d", i), "+15550001111")
		call.Analysis = &provider.Analysis{Summary: fmt.Sprintf("summary %d", i)}
		if err := svc.RecordCallEnd(context.Background(), "t1", call); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	c, _, _ := repo.FindByPhone(context.Background(), "t1", "+15550001111")
	entries := strings.Split(c.ConversationSummary, "\n\n")
	if len(entries) != MaxSummaryEntries {
		t.Fatalf("expected %d entries, got %d: %q", MaxSummaryEntries, len(entries), c.ConversationSummary)
	}
	// Oldest evicted: entry 0..2 gone, 3..7 kept.
	if !strings.Contains(entries[0], "summary 3") {
		t.Fatalf("expected oldest surviving entry to be summary 3, got %q", entries[0])
	}
	if !strings.Contains(entries[4], "summary 7") {
		t.Fatalf("expected newest entry to be summary 7, got %q", entries[4])
	}
	if c.TotalCalls != 8 {
		t.Fatalf("expected total_calls 8, got %d", c.TotalCalls)
	}
}

func TestBackfillNeverOverwrites(t *testing.T) {
	repo := NewMemoryRepo()
	ext := &fakeExtractor{identity: Identity{Name: "Extracted Name", Email: "new@example.com"}}
	svc := NewService(repo, ext, nil)

	// First call seeds the name via structured data.
	call := endedCall("c1", "+15557654321")
	call.Analysis = &provider.Analysis{StructuredData: &provider.StructuredData{Name: "Jamie Doe"}}
	if err := svc.RecordCallEnd(context.Background(), "t1", call); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// Second call: extraction returns a different name plus an email.
	call2 := endedCall("c2", "+15557654321")
	call2.Transcript = strings.Repeat("user: hello agent my email is new@example.com ", 5)
	if err := svc.RecordCallEnd(context.Background(), "t1", call2); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	c, _, _ := repo.FindByPhone(context.Background(), "t1", "+15557654321")
	if c.Name != "Jamie Doe" {
		t.Fatalf("name was overwritten: %q", c.Name)
	}
	if c.Email != "new@example.com" {
		t.Fatalf("missing email should have been backfilled, got %q", c.Email)
	}
}

func TestExtractionSkippedForShortTranscripts(t *testing.T) {
	repo := NewMemoryRepo()
	ext := &fakeExtractor{identity: Identity{Name: "X"}}
	svc := NewService(repo, ext, nil)

	call := endedCall("c1", "+15550002222")
	call.Transcript = "user: hi"
	if err := svc.RecordCallEnd(context.Background(), "t1", call); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ext.calls != 0 {
		t.Fatalf("extractor should not run on short transcripts")
	}
}

func TestExtractionFailureDegradesSilently(t *testing.T) {
	repo := NewMemoryRepo()
	ext := &fakeExtractor{err: errors.New("upstream timeout")}
	svc := NewService(repo, ext, nil)

	call := endedCall("c1", "+15550003333")
	call.Transcript = strings.Repeat("user: talking about many things at length here ", 5)
	if err := svc.RecordCallEnd(context.Background(), "t1", call); err != nil {
		t.Fatalf("extraction failure must not fail enrichment: %v", err)
	}
}

func TestBuildContext_NewCaller(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil)

	vars := svc.BuildContext(context.Background(), "t1", provider.Call{
		ID:       "c1",
		Customer: &provider.Customer{Number: "+15559990000"},
	})

	if vars["is_returning_caller"] != false {
		t.Fatalf("expected new caller")
	}
	if vars["total_previous_calls"] != 0 {
		t.Fatalf("expected 0 previous calls, got %v", vars["total_previous_calls"])
	}
	ctxStr, _ := vars["customer_context"].(string)
	if !strings.HasPrefix(ctxStr, "NEW CALLER") {
		t.Fatalf("unexpected context: %q", ctxStr)
	}
	// Contact is created eagerly so the id can be templated.
	if vars["contact_id"] == "" {
		t.Fatalf("expected contact_id")
	}
}

func TestBuildContext_ReturningCaller(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil)

	call := endedCall("c1", "+15558880000")
	call.Analysis = &provider.Analysis{
		Summary:        "Asked about pricing",
		StructuredData: &provider.StructuredData{Name: "Sam Lee", Email: "sam@example.com"},
	}
	if err := svc.RecordCallEnd(context.Background(), "t1", call); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	vars := svc.BuildContext(context.Background(), "t1", provider.Call{
		ID:       "c2",
		Customer: &provider.Customer{Number: "+15558880000"},
	})

	if vars["is_returning_caller"] != true {
		t.Fatalf("expected returning caller")
	}
	if vars["customer_name"] != "Sam Lee" {
		t.Fatalf("expected name, got %v", vars["customer_name"])
	}
	ctxStr, _ := vars["customer_context"].(string)
	if !strings.HasPrefix(ctxStr, "RETURNING CALLER DETECTED") {
		t.Fatalf("unexpected context: %q", ctxStr)
	}
	if !strings.Contains(ctxStr, "Asked about pricing") {
		t.Fatalf("context missing conversation history: %q", ctxStr)
	}
}

func TestBuildContext_UnresolvableReturnsEmpty(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)
	vars := svc.BuildContext(context.Background(), "t1", provider.Call{ID: "c1"})
	if len(vars) != 0 {
		t.Fatalf("expected empty map, got %v", vars)
	}
}

func TestRollSummaryFormat(t *testing.T) {
	date := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	got := RollSummary("", "First call", date)
	if got != "[3/9/2024] First call" {
		t.Fatalf("unexpected entry format: %q", got)
	}
	got = RollSummary(got, "Second call", date)
	if got != "[3/9/2024] First call\n\n[3/9/2024] Second call" {
		t.Fatalf("unexpected rolled summary: %q", got)
	}
}
