package fanout

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"call-relay/internal/provider"

	"github.com/google/uuid"
)

// SubscriberRepository is the persistence contract for webhook
// registrations.
type SubscriberRepository interface {
	ListActive(ctx context.Context) ([]Subscriber, error)
	Create(ctx context.Context, s Subscriber) error
	List(ctx context.Context) ([]Subscriber, error)
	Deactivate(ctx context.Context, id string) (bool, error)
}

// DeliveryLogRepository is append-only, one row per attempt.
type DeliveryLogRepository interface {
	Append(ctx context.Context, e DeliveryLogEntry) error
}

// deliveryTimeout bounds each individual transmission. Total fan-out
// latency is bounded by the slowest subscriber, not the sum: all
// transmissions run concurrently.
const deliveryTimeout = 10 * time.Second

const (
	headerEvent     = "X-Relay-Event"
	headerTimestamp = "X-Relay-Timestamp"
	headerSignature = "X-Relay-Signature"
)

// Engine forwards normalized events to eligible subscribers.
//
// Per-subscriber failures are never fatal to the webhook being handled;
// the engine reports counts and writes one delivery log entry per attempt.
type Engine struct {
	subs  SubscriberRepository
	logs  DeliveryLogRepository
	http  *http.Client
	log   *slog.Logger
	clock func() time.Time
}

func NewEngine(subs SubscriberRepository, logs DeliveryLogRepository, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		subs:  subs,
		logs:  logs,
		http:  &http.Client{Timeout: deliveryTimeout},
		log:   log,
		clock: time.Now,
	}
}

// Result reports fan-out counts for the provider-facing response.
type Result struct {
	Forwarded int `json:"forwarded"`
	Total     int `json:"total"`
}

// Dispatch fans the event out to every eligible subscriber concurrently and
// waits for all attempts (each bounded by deliveryTimeout).
func (e *Engine) Dispatch(ctx context.Context, event string, call provider.Call) (Result, error) {
	subs, err := e.subs.ListActive(ctx)
	if err != nil {
		return Result{}, err
	}

	eligible := subs[:0:0]
	for _, s := range subs {
		if Eligible(s, event, call.AssistantID) {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		return Result{}, nil
	}

	payload := BuildPayload(event, call, e.clock())
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		forwarded int
	)
	for _, sub := range eligible {
		wg.Add(1)
		go func(sub Subscriber) {
			defer wg.Done()
			if e.deliver(ctx, sub, payload.Event, payload.Timestamp, body) {
				mu.Lock()
				forwarded++
				mu.Unlock()
			}
		}(sub)
	}
	wg.Wait()

	return Result{Forwarded: forwarded, Total: len(eligible)}, nil
}

// Eligible applies the subscription filter: active, event subscribed, and
// agent scope either empty or covering the call's agent.
func Eligible(s Subscriber, event, agentID string) bool {
	return s.Active && s.WantsEvent(event) && s.CoversAgent(agentID)
}

// deliver transmits one attempt and unconditionally records its outcome.
func (e *Engine) deliver(ctx context.Context, sub Subscriber, event, timestamp string, body []byte) bool {
	entry := DeliveryLogEntry{
		ID:           uuid.NewString(),
		SubscriberID: sub.ID,
		Event:        event,
		Payload:      body,
		CreatedAt:    e.clock().UTC(),
	}

	status, err := e.post(ctx, sub, event, timestamp, body)
	success := err == nil && status >= 200 && status <= 299
	entry.ResponseStatus = status
	if err != nil {
		entry.ErrorMessage = err.Error()
	}

	if logErr := e.logs.Append(ctx, entry); logErr != nil {
		// The audit row is best-effort too; losing it must not affect the
		// delivery outcome reported upstream.
		e.log.Error("delivery log append failed", "subscriber_id", sub.ID, "err", logErr)
	}

	if !success {
		e.log.Warn("webhook delivery failed",
			"subscriber_id", sub.ID, "event", event, "status", status, "err", err)
	}
	return success
}

func (e *Engine) post(ctx context.Context, sub Subscriber, event, timestamp string, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerEvent, event)
	req.Header.Set(headerTimestamp, timestamp)
	if sub.Secret != "" {
		req.Header.Set(headerSignature, Sign(body, sub.Secret))
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
