package history

import (
	"context"
	"log/slog"
	"time"

	"call-relay/internal/normalize"
	"call-relay/internal/provider"
	"call-relay/internal/tenant"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the call archive.
type Repository interface {
	Exists(ctx context.Context, providerCallID string) (bool, error)
	Insert(ctx context.Context, rec CallHistoryRecord) error
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]CallHistoryRecord, error)
}

// CallAPI is the slice of the provider client the syncer needs.
type CallAPI interface {
	ListCalls(ctx context.Context, apiKey string, limit int) ([]provider.Call, error)
	GetCall(ctx context.Context, apiKey, callID string) (provider.Call, error)
}

// Stats summarizes one sync run.
type Stats struct {
	Synced  int
	Skipped int
	Failed  int
}

// Syncer backfills the durable call archive from the provider's REST API.
// It exists because webhooks are at-least-once but not guaranteed: calls
// whose end-of-call-report never arrived are recovered here.
type Syncer struct {
	tenants tenant.Repository
	repo    Repository
	api     CallAPI
	log     *slog.Logger
	clock   func() time.Time

	// PageSize bounds each provider list request.
	PageSize int
}

func NewSyncer(tenants tenant.Repository, repo Repository, api CallAPI, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		tenants:  tenants,
		repo:     repo,
		api:      api,
		log:      log,
		clock:    time.Now,
		PageSize: 1000,
	}
}

// SyncAll runs one sync pass for every tenant with a provider API key.
func (s *Syncer) SyncAll(ctx context.Context) (Stats, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	var total Stats
	for _, t := range tenants {
		if t.ProviderAPIKey == "" {
			s.log.Warn("tenant has no provider API key, skipping", "tenant_id", t.ID)
			continue
		}
		st, err := s.SyncTenant(ctx, t)
		if err != nil {
			// One tenant failing must not abort the rest of the pass.
			s.log.Error("tenant sync failed", "tenant_id", t.ID, "err", err)
			continue
		}
		total.Synced += st.Synced
		total.Skipped += st.Skipped
		total.Failed += st.Failed
	}
	return total, nil
}

// SyncTenant pulls the tenant's recent calls and archives the ones not yet
// stored. Calls listed without a transcript are re-fetched individually for
// full detail.
func (s *Syncer) SyncTenant(ctx context.Context, t tenant.Tenant) (Stats, error) {
	calls, err := s.api.ListCalls(ctx, t.ProviderAPIKey, s.PageSize)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	for _, call := range calls {
		if call.ID == "" {
			continue
		}

		exists, err := s.repo.Exists(ctx, call.ID)
		if err != nil {
			s.log.Error("archive existence check failed", "call_id", call.ID, "err", err)
			st.Failed++
			continue
		}
		if exists {
			st.Skipped++
			continue
		}

		if call.Transcript == "" {
			full, err := s.api.GetCall(ctx, t.ProviderAPIKey, call.ID)
			if err != nil {
				s.log.Warn("call detail fetch failed, archiving list view", "call_id", call.ID, "err", err)
			} else {
				call = full
			}
		}

		if err := s.repo.Insert(ctx, s.toRecord(t.ID, call)); err != nil {
			s.log.Error("archive insert failed", "call_id", call.ID, "err", err)
			st.Failed++
			continue
		}
		st.Synced++
	}

	s.log.Info("tenant sync complete",
		"tenant_id", t.ID, "synced", st.Synced, "skipped", st.Skipped, "failed", st.Failed)
	return st, nil
}

func (s *Syncer) toRecord(tenantID string, call provider.Call) CallHistoryRecord {
	return CallHistoryRecord{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		ProviderCallID:  call.ID,
		AssistantID:     call.AssistantID,
		CustomerNumber:  call.CustomerNumber(),
		Status:          call.Status,
		EndedReason:     call.EndedReason,
		Outcome:         normalize.ClassifyOutcome(call.EndedReason),
		DurationSeconds: normalize.ComputeDuration(call.StartedAt, call.EndedAt),
		Cost:            normalize.SumCost(call.Costs),
		Transcript:      call.Transcript,
		Summary:         call.Summary(),
		StartedAt:       call.StartedAt,
		EndedAt:         call.EndedAt,
		SyncedAt:        s.clock().UTC(),
	}
}
