package tenant

import (
	"context"
	"errors"
)

// Repository is the persistence contract for tenants.
type Repository interface {
	FindByProviderOrgID(ctx context.Context, orgID string) (Tenant, bool, error)
	Get(ctx context.Context, id string) (Tenant, bool, error)
	List(ctx context.Context) ([]Tenant, error)
}

// Resolver maps provider organization ids to tenants.
//
// Resolution is a single-key lookup and is deliberately uncached across
// requests; callers that need the tenant more than once within one handling
// step should resolve once and pass it down.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

var ErrInvalidArgument = errors.New("tenant: invalid argument")

// ResolveByOrgID returns the tenant owning the provider org id.
// A miss is not an error: (Tenant{}, false, nil).
func (r *Resolver) ResolveByOrgID(ctx context.Context, orgID string) (Tenant, bool, error) {
	if orgID == "" {
		return Tenant{}, false, nil
	}
	return r.repo.FindByProviderOrgID(ctx, orgID)
}

// Get returns the tenant by internal id, typically for credential lookup.
func (r *Resolver) Get(ctx context.Context, id string) (Tenant, bool, error) {
	if id == "" {
		return Tenant{}, false, ErrInvalidArgument
	}
	return r.repo.Get(ctx, id)
}
