package fanout

import (
	"time"

	"call-relay/internal/normalize"
	"call-relay/internal/provider"
)

// Payload is the canonical outbound event shape. Absent optional values are
// serialized as explicit nulls so subscribers get a stable schema.
type Payload struct {
	Event     string          `json:"event"`
	Timestamp string          `json:"timestamp"`
	Call      PayloadCall     `json:"call"`
	Customer  PayloadCustomer `json:"customer"`

	Transcript *string `json:"transcript"`
	Summary    *string `json:"summary"`

	Costs PayloadCosts `json:"costs"`
}

type PayloadCall struct {
	ID      string `json:"id"`
	AgentID string `json:"agentId"`
	Status  string `json:"status"`

	// Outcome is the canonical classification of the provider end reason.
	Outcome string `json:"outcome"`

	Duration PayloadDuration `json:"duration"`

	StartedAt *time.Time `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
}

type PayloadDuration struct {
	Seconds   int    `json:"seconds"`
	Formatted string `json:"formatted"`
}

type PayloadCustomer struct {
	Phone *string `json:"phone"`
}

type PayloadCosts struct {
	// Total is rounded to 2 decimal places; this is the only place the
	// accumulated cost is rounded.
	Total float64 `json:"total"`
}

// BuildPayload normalizes a provider call into the canonical outbound shape
// for the given event name.
func BuildPayload(event string, call provider.Call, now time.Time) Payload {
	seconds := normalize.ComputeDuration(call.StartedAt, call.EndedAt)

	return Payload{
		Event:     event,
		Timestamp: now.UTC().Format(time.RFC3339),
		Call: PayloadCall{
			ID:      call.ID,
			AgentID: call.AssistantID,
			Status:  call.Status,
			Outcome: normalize.ClassifyOutcome(call.EndedReason),
			Duration: PayloadDuration{
				Seconds:   seconds,
				Formatted: normalize.FormatDuration(seconds),
			},
			StartedAt: call.StartedAt,
			EndedAt:   call.EndedAt,
		},
		Customer:   PayloadCustomer{Phone: optional(call.CustomerNumber())},
		Transcript: optional(call.Transcript),
		Summary:    optional(call.Summary()),
		Costs:      PayloadCosts{Total: normalize.RoundCost(normalize.SumCost(call.Costs))},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
