package usage

import "time"

// Record is an immutable, append-only usage entry, one per billable call.
//
// Invariants:
// - Records are never updated or deleted.
// - tenant_id is required for tenancy isolation.
// - provider_call_id is the idempotency key: re-delivered termination
//   webhooks must not double-bill.
// - No rollup update without a record insert, and both happen in one
//   transaction.
type Record struct {
	ID             string `json:"id" db:"id"`
	TenantID       string `json:"tenant_id" db:"tenant_id"`
	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	Seconds int `json:"seconds" db:"seconds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Rollup is the per-tenant monthly projection over usage records. Billing
// reads this; this core only keeps it consistent with the ledger.
type Rollup struct {
	TenantID string `json:"tenant_id" db:"tenant_id"`

	// Period is "YYYY-MM" in UTC.
	Period string `json:"period" db:"period"`

	TotalSeconds int64 `json:"total_seconds" db:"total_seconds"`
	CallCount    int64 `json:"call_count" db:"call_count"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
