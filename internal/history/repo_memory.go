package history

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory archive repository for tests.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]CallHistoryRecord // keyed by provider call id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string]CallHistoryRecord)}
}

func (r *MemoryRepo) Exists(ctx context.Context, providerCallID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[providerCallID]
	return ok, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, rec CallHistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ProviderCallID]; ok {
		return nil
	}
	r.records[rec.ProviderCallID] = rec
	return nil
}

func (r *MemoryRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]CallHistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CallHistoryRecord
	for _, rec := range r.records {
		if rec.TenantID == tenantID {
			out = append(out, rec)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Get returns the archived record for a provider call id; test helper.
func (r *MemoryRepo) Get(providerCallID string) (CallHistoryRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[providerCallID]
	return rec, ok
}

// Len reports the number of archived records; test helper.
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
