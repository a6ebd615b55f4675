package fanout

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"call-relay/internal/provider"
)

func testCall() provider.Call {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(5 * time.Minute)
	return provider.Call{
		ID:          "call-1",
		AssistantID: "agent-a",
		Status:      "ended",
		EndedReason: "customer-ended-call",
		StartedAt:   &started,
		EndedAt:     &ended,
		Customer:    &provider.Customer{Number: "+15550001"},
		Transcript:  "assistant: Hello\nuser: Hi",
	}
}

type capture struct {
	mu     sync.Mutex
	bodies [][]byte
	heads  []http.Header
}

func (c *capture) server(status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, body)
		c.heads = append(c.heads, r.Header.Clone())
		c.mu.Unlock()
		w.WriteHeader(status)
	}))
}

func newTestEngine(subs *MemorySubscriberRepo, logs *MemoryDeliveryLogRepo) *Engine {
	e := NewEngine(subs, logs, nil)
	e.clock = func() time.Time { return time.Date(2024, 5, 1, 10, 6, 0, 0, time.UTC) }
	return e
}

func TestDispatchDeliversSignedPayload(t *testing.T) {
	var seen capture
	srv := seen.server(http.StatusOK)
	defer srv.Close()

	subs := NewMemorySubscriberRepo()
	subs.Create(context.Background(), Subscriber{
		ID:     "sub-1",
		URL:    srv.URL,
		Secret: "topsecret",
		Active: true,
		Events: []string{EventCallEnded},
	})
	logs := NewMemoryDeliveryLogRepo()
	eng := newTestEngine(subs, logs)

	res, err := eng.Dispatch(context.Background(), EventCallEnded, testCall())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Forwarded != 1 || res.Total != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	if len(seen.bodies) != 1 {
		t.Fatalf("expected 1 request, got %d", len(seen.bodies))
	}
	head := seen.heads[0]
	if got := head.Get("X-Relay-Event"); got != EventCallEnded {
		t.Errorf("event header = %q", got)
	}
	if head.Get("X-Relay-Timestamp") == "" {
		t.Errorf("missing timestamp header")
	}
	want := Sign(seen.bodies[0], "topsecret")
	if got := head.Get("X-Relay-Signature"); !hmac.Equal([]byte(got), []byte(want)) {
		t.Errorf("signature mismatch: got %q want %q", got, want)
	}

	var p Payload
	if err := json.Unmarshal(seen.bodies[0], &p); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if p.Event != EventCallEnded || p.Call.ID != "call-1" {
		t.Errorf("unexpected payload: %+v", p)
	}
	if p.Call.Outcome != "customer_hangup" {
		t.Errorf("outcome = %q", p.Call.Outcome)
	}
	if p.Call.Duration.Seconds != 300 || p.Call.Duration.Formatted != "5:00" {
		t.Errorf("duration = %+v", p.Call.Duration)
	}
	if p.Customer.Phone == nil || *p.Customer.Phone != "+15550001" {
		t.Errorf("phone = %v", p.Customer.Phone)
	}
	if p.Summary != nil {
		t.Errorf("expected null summary, got %v", *p.Summary)
	}
}

func TestDispatchAgentScope(t *testing.T) {
	var seen capture
	srv := seen.server(http.StatusOK)
	defer srv.Close()

	subs := NewMemorySubscriberRepo()
	// Unscoped subscriber receives events for any agent.
	subs.Create(context.Background(), Subscriber{
		ID: "sub-any", URL: srv.URL, Active: true,
		Events: []string{EventCallEnded},
	})
	// Scoped to a different agent; must be skipped entirely.
	subs.Create(context.Background(), Subscriber{
		ID: "sub-b", URL: srv.URL, Active: true,
		Events:   []string{EventCallEnded},
		AgentIDs: []string{"agent-b"},
	})
	logs := NewMemoryDeliveryLogRepo()
	eng := newTestEngine(subs, logs)

	res, err := eng.Dispatch(context.Background(), EventCallEnded, testCall())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Forwarded != 1 || res.Total != 1 {
		t.Fatalf("scoped subscriber must not count: %+v", res)
	}
	// Skipped subscribers produce no attempt, hence no log row.
	entries := logs.Entries()
	if len(entries) != 1 || entries[0].SubscriberID != "sub-any" {
		t.Fatalf("unexpected log entries: %+v", entries)
	}
}

func TestDispatchFiltersEventAndActive(t *testing.T) {
	var seen capture
	srv := seen.server(http.StatusOK)
	defer srv.Close()

	subs := NewMemorySubscriberRepo()
	subs.Create(context.Background(), Subscriber{
		ID: "started-only", URL: srv.URL, Active: true,
		Events: []string{EventCallStarted},
	})
	subs.Create(context.Background(), Subscriber{
		ID: "inactive", URL: srv.URL, Active: false,
		Events: []string{EventCallEnded},
	})
	eng := newTestEngine(subs, NewMemoryDeliveryLogRepo())

	res, err := eng.Dispatch(context.Background(), EventCallEnded, testCall())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Forwarded != 0 || res.Total != 0 {
		t.Fatalf("expected zero eligible subscribers: %+v", res)
	}
	if len(seen.bodies) != 0 {
		t.Fatalf("no requests expected, got %d", len(seen.bodies))
	}
}

func TestDispatchLogsEveryAttempt(t *testing.T) {
	var okSeen, failSeen capture
	okSrv := okSeen.server(http.StatusOK)
	defer okSrv.Close()
	failSrv := failSeen.server(http.StatusBadGateway)
	defer failSrv.Close()

	subs := NewMemorySubscriberRepo()
	subs.Create(context.Background(), Subscriber{
		ID: "ok", URL: okSrv.URL, Active: true, Events: []string{EventCallEnded},
	})
	subs.Create(context.Background(), Subscriber{
		ID: "bad", URL: failSrv.URL, Active: true, Events: []string{EventCallEnded},
	})
	subs.Create(context.Background(), Subscriber{
		// Connection refused; the attempt still gets a log row.
		ID: "down", URL: "http://127.0.0.1:1", Active: true, Events: []string{EventCallEnded},
	})
	logs := NewMemoryDeliveryLogRepo()
	eng := newTestEngine(subs, logs)

	res, err := eng.Dispatch(context.Background(), EventCallEnded, testCall())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Forwarded != 1 || res.Total != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}

	entries := logs.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	byID := map[string]DeliveryLogEntry{}
	for _, e := range entries {
		byID[e.SubscriberID] = e
	}
	if byID["ok"].ResponseStatus != http.StatusOK || byID["ok"].ErrorMessage != "" {
		t.Errorf("ok entry: %+v", byID["ok"])
	}
	if byID["bad"].ResponseStatus != http.StatusBadGateway {
		t.Errorf("bad entry: %+v", byID["bad"])
	}
	if byID["down"].ResponseStatus != 0 || byID["down"].ErrorMessage == "" {
		t.Errorf("down entry: %+v", byID["down"])
	}
}

func TestDispatchNoSecretNoSignature(t *testing.T) {
	var seen capture
	srv := seen.server(http.StatusOK)
	defer srv.Close()

	subs := NewMemorySubscriberRepo()
	subs.Create(context.Background(), Subscriber{
		ID: "plain", URL: srv.URL, Active: true, Events: []string{EventCallStarted},
	})
	eng := newTestEngine(subs, NewMemoryDeliveryLogRepo())

	if _, err := eng.Dispatch(context.Background(), EventCallStarted, testCall()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := seen.heads[0].Get("X-Relay-Signature"); got != "" {
		t.Errorf("unexpected signature header %q", got)
	}
}
