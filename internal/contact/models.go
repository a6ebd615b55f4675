package contact

import "time"

// Contact is a per-tenant customer record keyed by phone number, created
// lazily on the first call and enriched across calls.
//
// Invariants:
// - At most one row per (tenant_id, phone).
// - Name and email are filled at most once, first write wins; enrichment
//   only fills gaps, never overwrites.
// - ConversationSummary holds at most MaxSummaryEntries dated entries,
//   oldest evicted first.
type Contact struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Phone    string `json:"phone" db:"phone"`

	Name  string `json:"name,omitempty" db:"name"`
	Email string `json:"email,omitempty" db:"email"`

	// ConversationSummary is a newline-pair-delimited list of dated summary
	// entries, newest last.
	ConversationSummary string `json:"conversation_summary,omitempty" db:"conversation_summary"`

	TotalCalls int        `json:"total_calls" db:"total_calls"`
	LastCallAt *time.Time `json:"last_call_at,omitempty" db:"last_call_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CallRecord is an append-only history entry linked to a contact; one per
// terminated call with a resolvable phone number. Never updated or deleted.
type CallRecord struct {
	ID             string `json:"id" db:"id"`
	ContactID      string `json:"contact_id" db:"contact_id"`
	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	Summary    string `json:"summary,omitempty" db:"summary"`
	Transcript string `json:"transcript,omitempty" db:"transcript"`

	// Outcome stores the raw endedReason (or status when the reason is
	// absent); canonical classification is a fan-out concern.
	Outcome string `json:"outcome" db:"outcome"`

	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`
	CalledAt        time.Time `json:"called_at" db:"called_at"`
}

// MaxSummaryEntries caps the rolling conversation summary window.
const MaxSummaryEntries = 5

// Identity is a name/email pair produced by extraction.
type Identity struct {
	Name  string
	Email string
}
