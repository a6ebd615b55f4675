package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"call-relay/internal/provider"
	"call-relay/internal/tenant"
)

type fakeAPI struct {
	calls   map[string][]provider.Call // keyed by api key
	details map[string]provider.Call   // keyed by call id
	listErr error
}

func (f *fakeAPI) ListCalls(_ context.Context, apiKey string, _ int) ([]provider.Call, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.calls[apiKey], nil
}

func (f *fakeAPI) GetCall(_ context.Context, _ string, callID string) (provider.Call, error) {
	c, ok := f.details[callID]
	if !ok {
		return provider.Call{}, provider.ErrNotFound
	}
	return c, nil
}

func ts(s string) *time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return &t
}

func TestSyncTenantArchivesNewCalls(t *testing.T) {
	api := &fakeAPI{
		calls: map[string][]provider.Call{
			"key-1": {
				{ID: "c1", Status: "ended", EndedReason: "customer-ended-call",
					StartedAt: ts("2024-01-01T00:00:00Z"), EndedAt: ts("2024-01-01T00:05:00Z"),
					Transcript: "assistant: Hi"},
				{ID: "c2", Status: "ended"},
			},
		},
		details: map[string]provider.Call{
			"c2": {ID: "c2", Status: "ended", Transcript: "user: Hello",
				Costs: []provider.CostItem{{Type: "transport", Cost: 0.10}, {Type: "model", Cost: 0.05}}},
		},
	}
	repo := NewMemoryRepo()
	s := NewSyncer(tenant.NewMemoryRepo(), repo, api, nil)

	st, err := s.SyncTenant(context.Background(), tenant.Tenant{ID: "t1", ProviderAPIKey: "key-1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if st.Synced != 2 || st.Skipped != 0 || st.Failed != 0 {
		t.Fatalf("stats = %+v", st)
	}

	rec, ok := repo.Get("c1")
	if !ok {
		t.Fatalf("expected archived c1")
	}
	if rec.DurationSeconds != 300 || rec.Outcome != "customer_hangup" {
		t.Errorf("unexpected record: %+v", rec)
	}

	// c2 listed without transcript, detail fetch fills it in.
	rec2, _ := repo.Get("c2")
	if rec2.Transcript != "user: Hello" {
		t.Errorf("transcript = %q", rec2.Transcript)
	}
	if rec2.Cost < 0.1499 || rec2.Cost > 0.1501 {
		t.Errorf("expected cost ~0.15, got %v", rec2.Cost)
	}
}

func TestSyncTenantSkipsExisting(t *testing.T) {
	api := &fakeAPI{calls: map[string][]provider.Call{
		"key-1": {{ID: "c1", Status: "ended", Transcript: "x"}},
	}}
	repo := NewMemoryRepo()
	repo.Insert(context.Background(), CallHistoryRecord{ID: "old", ProviderCallID: "c1", TenantID: "t1"})

	s := NewSyncer(tenant.NewMemoryRepo(), repo, api, nil)
	st, err := s.SyncTenant(context.Background(), tenant.Tenant{ID: "t1", ProviderAPIKey: "key-1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if st.Skipped != 1 || st.Synced != 0 {
		t.Fatalf("stats = %+v", st)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected single record, got %d", repo.Len())
	}
}

func TestSyncAllContinuesPastTenantFailure(t *testing.T) {
	tenants := tenant.NewMemoryRepo(
		tenant.Tenant{ID: "t-bad", ProviderAPIKey: "key-bad"},
		tenant.Tenant{ID: "t-good", ProviderAPIKey: "key-good"},
		tenant.Tenant{ID: "t-nokey"},
	)
	api := &failFirstAPI{
		inner: &fakeAPI{calls: map[string][]provider.Call{
			"key-good": {{ID: "c1", Status: "ended", Transcript: "x"}},
		}},
		failKey: "key-bad",
	}
	repo := NewMemoryRepo()

	s := NewSyncer(tenants, repo, api, nil)
	st, err := s.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if st.Synced != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

type failFirstAPI struct {
	inner   *fakeAPI
	failKey string
}

func (f *failFirstAPI) ListCalls(ctx context.Context, apiKey string, limit int) ([]provider.Call, error) {
	if apiKey == f.failKey {
		return nil, errors.New("provider unavailable")
	}
	return f.inner.ListCalls(ctx, apiKey, limit)
}

func (f *failFirstAPI) GetCall(ctx context.Context, apiKey, callID string) (provider.Call, error) {
	return f.inner.GetCall(ctx, apiKey, callID)
}
