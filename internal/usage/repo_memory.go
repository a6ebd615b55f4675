package usage

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory usage repository for tests.
type MemoryRepo struct {
	mu      sync.Mutex
	records []Record
	rollups map[string]Rollup // keyed by tenant_id + "/" + period
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rollups: make(map[string]Rollup)}
}

func (r *MemoryRepo) Append(ctx context.Context, rec Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.ProviderCallID == rec.ProviderCallID {
			return false, nil
		}
	}
	r.records = append(r.records, rec)

	key := rec.TenantID + "/" + PeriodOf(rec.CreatedAt)
	roll := r.rollups[key]
	roll.TenantID = rec.TenantID
	roll.Period = PeriodOf(rec.CreatedAt)
	roll.TotalSeconds += int64(rec.Seconds)
	roll.CallCount++
	roll.UpdatedAt = rec.CreatedAt
	r.rollups[key] = roll
	return true, nil
}

func (r *MemoryRepo) RollupFor(ctx context.Context, tenantID, period string) (Rollup, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roll, ok := r.rollups[tenantID+"/"+period]
	return roll, ok, nil
}

// Records returns appended records; test helper.
func (r *MemoryRepo) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}
