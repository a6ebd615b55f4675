package activecall

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory active-call repository for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	calls map[string]ActiveCall // keyed by provider call id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{calls: make(map[string]ActiveCall)}
}

func (r *MemoryRepo) DeleteStartedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.calls {
		if c.StartedAt.Before(cutoff) {
			delete(r.calls, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) Exists(ctx context.Context, providerCallID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.calls[providerCallID]
	return ok, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, c ActiveCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[c.ProviderCallID]; ok {
		return nil
	}
	r.calls[c.ProviderCallID] = c
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, providerCallID string, u Update) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[providerCallID]
	if !ok {
		return "", false, nil
	}
	c.Status = u.Status
	c.LastActiveAt = u.LastActiveAt
	if u.Summary != nil {
		c.Summary = *u.Summary
	}
	if u.Transcript != nil {
		c.Transcript = *u.Transcript
	}
	r.calls[providerCallID] = c
	return c.TenantID, true, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, providerCallID string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[providerCallID]
	if !ok {
		return "", false, nil
	}
	delete(r.calls, providerCallID)
	return c.TenantID, true, nil
}

func (r *MemoryRepo) ListByTenant(ctx context.Context, tenantID string) ([]ActiveCall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ActiveCall
	for _, c := range r.calls {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// Get returns the row for a provider call id; test helper.
func (r *MemoryRepo) Get(providerCallID string) (ActiveCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[providerCallID]
	return c, ok
}

// Len reports the number of stored rows; test helper.
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
