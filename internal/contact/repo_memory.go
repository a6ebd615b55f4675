package contact

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory contact repository for tests.
type MemoryRepo struct {
	mu       sync.Mutex
	contacts map[string]Contact // keyed by contact id
	records  []CallRecord
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{contacts: make(map[string]Contact)}
}

func (r *MemoryRepo) FindByPhone(ctx context.Context, tenantID, phone string) (Contact, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contacts {
		if c.TenantID == tenantID && c.Phone == phone {
			return c, true, nil
		}
	}
	return Contact{}, false, nil
}

func (r *MemoryRepo) Create(ctx context.Context, c Contact) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.contacts {
		if existing.TenantID == c.TenantID && existing.Phone == c.Phone {
			return existing, nil
		}
	}
	r.contacts[c.ID] = c
	return c, nil
}

func (r *MemoryRepo) InsertCallRecord(ctx context.Context, rec CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepo) FetchIdentity(ctx context.Context, contactID string) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[contactID]
	if !ok {
		return "", "", nil
	}
	return c.Name, c.Email, nil
}

func (r *MemoryRepo) ApplyCallResult(ctx context.Context, contactID string, u CallResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[contactID]
	if !ok {
		return nil
	}
	c.TotalCalls = u.TotalCalls
	last := u.LastCallAt
	c.LastCallAt = &last
	c.UpdatedAt = u.UpdatedAt
	if u.ConversationSummary != nil {
		c.ConversationSummary = *u.ConversationSummary
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	r.contacts[contactID] = c
	return nil
}

// Get returns a stored contact by id; test helper.
func (r *MemoryRepo) Get(contactID string) (Contact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[contactID]
	return c, ok
}

// SetIdentity force-sets name/email on a stored contact; test helper for
// simulating a concurrent write landing between re-read and update.
func (r *MemoryRepo) SetIdentity(contactID, name, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.contacts[contactID]
	c.Name = name
	c.Email = email
	r.contacts[contactID] = c
}

// Records returns the appended call history; test helper.
func (r *MemoryRepo) Records() []CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, len(r.records))
	copy(out, r.records)
	return out
}
