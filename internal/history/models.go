package history

import "time"

// CallHistoryRecord is the durable per-call archive row written by the
// batch sync. Unlike active-call rows these are never deleted; dashboards
// and reporting read from here.
type CallHistoryRecord struct {
	ID             string `json:"id" db:"id"`
	TenantID       string `json:"tenant_id" db:"tenant_id"`
	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	AssistantID    string `json:"assistant_id,omitempty" db:"assistant_id"`
	CustomerNumber string `json:"customer_number,omitempty" db:"customer_number"`

	Status      string `json:"status" db:"status"`
	EndedReason string `json:"ended_reason,omitempty" db:"ended_reason"`

	// Outcome is the canonical classification of the end reason.
	Outcome string `json:"outcome" db:"outcome"`

	DurationSeconds int     `json:"duration_seconds" db:"duration_seconds"`
	Cost            float64 `json:"cost" db:"cost"`

	Transcript string `json:"transcript,omitempty" db:"transcript"`
	Summary    string `json:"summary,omitempty" db:"summary"`

	StartedAt *time.Time `json:"started_at,omitempty" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	SyncedAt time.Time `json:"synced_at" db:"synced_at"`
}
