package fanout

import (
	"context"
	"sync"
)

// MemorySubscriberRepo is an in-memory SubscriberRepository for tests.
type MemorySubscriberRepo struct {
	mu   sync.RWMutex
	subs []Subscriber
}

func NewMemorySubscriberRepo() *MemorySubscriberRepo { return &MemorySubscriberRepo{} }

func (r *MemorySubscriberRepo) Create(_ context.Context, s Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, s)
	return nil
}

func (r *MemorySubscriberRepo) ListActive(_ context.Context) ([]Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Subscriber
	for _, s := range r.subs {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemorySubscriberRepo) List(_ context.Context) ([]Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscriber, len(r.subs))
	copy(out, r.subs)
	return out, nil
}

func (r *MemorySubscriberRepo) Deactivate(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.subs {
		if r.subs[i].ID == id && r.subs[i].Active {
			r.subs[i].Active = false
			return true, nil
		}
	}
	return false, nil
}

// MemoryDeliveryLogRepo is an in-memory DeliveryLogRepository for tests.
type MemoryDeliveryLogRepo struct {
	mu      sync.Mutex
	entries []DeliveryLogEntry
	failErr error
}

func NewMemoryDeliveryLogRepo() *MemoryDeliveryLogRepo { return &MemoryDeliveryLogRepo{} }

func (r *MemoryDeliveryLogRepo) Append(_ context.Context, e DeliveryLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.entries = append(r.entries, e)
	return nil
}

// Entries returns a copy of everything appended so far.
func (r *MemoryDeliveryLogRepo) Entries() []DeliveryLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DeliveryLogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// FailWith makes subsequent appends return err.
func (r *MemoryDeliveryLogRepo) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
}
