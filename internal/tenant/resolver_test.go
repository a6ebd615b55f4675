package tenant

import (
	"context"
	"testing"
)

func TestResolveByOrgID(t *testing.T) {
	repo := NewMemoryRepo(Tenant{ID: "t1", Name: "Acme", ProviderOrgID: "org1"})
	res := NewResolver(repo)

	got, ok, err := res.ResolveByOrgID(context.Background(), "org1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ok || got.ID != "t1" {
		t.Fatalf("expected t1, got %+v ok=%v", got, ok)
	}

	_, ok, err = res.ResolveByOrgID(context.Background(), "org-unknown")
	if err != nil {
		t.Fatalf("miss must not be an error: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}

	// Empty org id is a miss, not an error.
	_, ok, err = res.ResolveByOrgID(context.Background(), "")
	if err != nil || ok {
		t.Fatalf("expected silent miss for empty org id, got ok=%v err=%v", ok, err)
	}
}

func TestGetRequiresID(t *testing.T) {
	res := NewResolver(NewMemoryRepo())
	if _, _, err := res.Get(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
