package tenant

import "time"

// Tenant is an onboarded customer organization of the platform.
//
// Multi-tenant invariant: every stored record in this system hangs off a
// tenant id; the provider org id is the key that webhook events are resolved
// through.
type Tenant struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// ProviderOrgID is the provider-side organization identifier carried on
	// every webhook call object.
	ProviderOrgID string `json:"provider_org_id" db:"provider_org_id"`

	// ProviderAPIKey authenticates outbound calls to the provider REST API
	// (terminate, historical sync). Never log it.
	ProviderAPIKey string `json:"-" db:"provider_api_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
