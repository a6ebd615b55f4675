package activecall

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"call-relay/internal/provider"

	"github.com/google/uuid"
)

// Repository is the persistence contract for active-call rows.
type Repository interface {
	// DeleteStartedBefore removes all rows with started_at older than cutoff
	// and returns how many were removed. The reap is global, not
	// tenant-scoped: a stale row is garbage regardless of owner.
	DeleteStartedBefore(ctx context.Context, cutoff time.Time) (int, error)

	Exists(ctx context.Context, providerCallID string) (bool, error)
	Insert(ctx context.Context, c ActiveCall) error

	// Update applies a partial update to the row for providerCallID and
	// reports whether a row existed, plus its tenant id for notification.
	Update(ctx context.Context, providerCallID string, u Update) (tenantID string, updated bool, err error)

	// Delete removes the row if present and reports the owning tenant.
	Delete(ctx context.Context, providerCallID string) (tenantID string, deleted bool, err error)

	ListByTenant(ctx context.Context, tenantID string) ([]ActiveCall, error)
}

// Update is the partial field set applied by in-progress events.
// Nil pointers mean "leave unchanged".
type Update struct {
	Status       string
	LastActiveAt time.Time
	Summary      *string
	Transcript   *string
}

// Notifier observes active-call mutations. The realtime dashboard feed
// subscribes to these notifications; business logic never does.
type Notifier interface {
	CallsChanged(ctx context.Context, tenantID string)
}

// Tracker maintains the per-tenant live view of in-progress calls.
//
// Concurrency: the provider may deliver overlapping events for the same
// call. There is no cross-request locking; the existence check in
// EnsureStarted and the update-if-exists semantics of ApplyUpdate are the
// idempotency defenses.
type Tracker struct {
	repo     Repository
	notifier Notifier
	log      *slog.Logger
	clock    func() time.Time
}

func NewTracker(repo Repository, notifier Notifier, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{repo: repo, notifier: notifier, log: log, clock: time.Now}
}

// EnsureStarted records the call as active if it is not already tracked.
// Duplicate start-class events are no-ops. Stale rows are reaped first, on
// every start event, as the safety net against missed termination webhooks.
func (t *Tracker) EnsureStarted(ctx context.Context, tenantID string, call provider.Call) error {
	if call.ID == "" || tenantID == "" {
		return nil
	}

	now := t.clock().UTC()

	if n, err := t.repo.DeleteStartedBefore(ctx, now.Add(-StaleAfter)); err != nil {
		// Reaping is best-effort; a failed reap must not block call tracking.
		t.log.Warn("stale active-call reap failed", "err", err)
	} else if n > 0 {
		t.log.Info("reaped stale active calls", "count", n)
	}

	exists, err := t.repo.Exists(ctx, call.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	row := ActiveCall{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ProviderCallID: call.ID,
		Status:         call.Status,
		StartedAt:      now,
		LastActiveAt:   now,
		CustomerNumber: call.CustomerNumber(),
		AssistantID:    call.AssistantID,
		Type:           call.Type,
	}
	if row.Status == "" {
		row.Status = defaultStatus
	}
	if call.StartedAt != nil {
		row.StartedAt = call.StartedAt.UTC()
	}
	if row.Type == "" {
		row.Type = defaultCallType
	}

	if err := t.repo.Insert(ctx, row); err != nil {
		return err
	}
	t.notify(ctx, tenantID)
	return nil
}

// ApplyUpdate refreshes status and last-active time, and the summary or
// transcript when the event carries them. A missing row is a no-op:
// update-class events never create state.
func (t *Tracker) ApplyUpdate(ctx context.Context, call provider.Call, conversation []provider.ConversationMessage) error {
	if call.ID == "" {
		return nil
	}

	u := Update{
		Status:       call.Status,
		LastActiveAt: t.clock().UTC(),
	}
	if s := call.Summary(); s != "" {
		u.Summary = &s
	}
	if conversation != nil {
		tr := RenderTranscript(conversation)
		u.Transcript = &tr
	}

	tenantID, updated, err := t.repo.Update(ctx, call.ID, u)
	if err != nil {
		return err
	}
	if updated {
		t.notify(ctx, tenantID)
	}
	return nil
}

// Remove deletes the active-call row. Absence is not an error.
func (t *Tracker) Remove(ctx context.Context, providerCallID string) error {
	if providerCallID == "" {
		return nil
	}
	tenantID, deleted, err := t.repo.Delete(ctx, providerCallID)
	if err != nil {
		return err
	}
	if deleted {
		t.notify(ctx, tenantID)
	}
	return nil
}

// ListByTenant returns the tenant's current live view.
func (t *Tracker) ListByTenant(ctx context.Context, tenantID string) ([]ActiveCall, error) {
	return t.repo.ListByTenant(ctx, tenantID)
}

func (t *Tracker) notify(ctx context.Context, tenantID string) {
	if t.notifier == nil || tenantID == "" {
		return
	}
	t.notifier.CallsChanged(ctx, tenantID)
}

// RenderTranscript renders conversation history as "{role}: {text}" lines.
// The provider resends the full history each time, so the result replaces
// any previously stored transcript.
func RenderTranscript(conversation []provider.ConversationMessage) string {
	lines := make([]string, 0, len(conversation))
	for _, m := range conversation {
		lines = append(lines, m.Role+": "+m.Text())
	}
	return strings.Join(lines, "\n")
}
