package tenant

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory tenant repository for tests.
type MemoryRepo struct {
	mu      sync.Mutex
	tenants []Tenant
}

func NewMemoryRepo(tenants ...Tenant) *MemoryRepo {
	return &MemoryRepo{tenants: tenants}
}

func (r *MemoryRepo) Add(t Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants = append(r.tenants, t)
}

func (r *MemoryRepo) FindByProviderOrgID(ctx context.Context, orgID string) (Tenant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.ProviderOrgID == orgID {
			return t, true, nil
		}
	}
	return Tenant{}, false, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Tenant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.ID == id {
			return t, true, nil
		}
	}
	return Tenant{}, false, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tenant, len(r.tenants))
	copy(out, r.tenants)
	return out, nil
}
