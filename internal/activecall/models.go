package activecall

import "time"

// ActiveCall is one row per call currently believed to be in progress,
// scoped to a tenant.
//
// Invariants:
// - At most one row per provider call id.
// - Deletion IS the terminal state; "ended" is never stored as a resting
//   status. History lives in contact call records and the durable archive.
// - Rows older than StaleAfter by started_at are reaped on every start
//   event; the system has no background scheduler of its own, and missed
//   end-of-call webhooks must not leave calls stuck on dashboards.
type ActiveCall struct {
	ID             string `json:"id" db:"id"`
	TenantID       string `json:"tenant_id" db:"tenant_id"`
	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	// Status is stored verbatim from the provider (ringing, in-progress,
	// forwarding, ...). Treat as opaque.
	Status string `json:"status" db:"status"`

	StartedAt    time.Time `json:"started_at" db:"started_at"`
	LastActiveAt time.Time `json:"last_active_at" db:"last_active_at"`

	CustomerNumber string `json:"customer_number,omitempty" db:"customer_number"`
	AssistantID    string `json:"assistant_id,omitempty" db:"assistant_id"`

	// Type is the call direction as reported by the provider.
	Type string `json:"type" db:"type"`

	// Transcript is the full rendered conversation so far. The provider
	// resends complete history, so updates replace rather than append.
	Transcript string `json:"transcript,omitempty" db:"transcript"`
	Summary    string `json:"summary,omitempty" db:"summary"`
}

// StaleAfter is the age past which an active-call row is presumed abandoned.
const StaleAfter = time.Hour

const (
	defaultStatus   = "ringing"
	defaultCallType = "inbound"
)
