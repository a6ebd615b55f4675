package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for usage records.
//
// Append reports whether the record was newly inserted; a duplicate
// provider call id is not an error, merely already recorded.
type Repository interface {
	Append(ctx context.Context, r Record) (inserted bool, err error)
	RollupFor(ctx context.Context, tenantID, period string) (Rollup, bool, error)
}

// Recorder posts call usage against tenants. It is the single billing call
// site of the webhook core; rating and invoicing live elsewhere.
type Recorder struct {
	repo  Repository
	clock func() time.Time
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, clock: time.Now}
}

var ErrInvalidArgument = errors.New("usage: invalid argument")

// Record appends a usage entry for a terminated call. Idempotent per
// provider call id. Non-positive durations are rejected; callers gate on
// duration > 0 before reaching billing.
func (s *Recorder) Record(ctx context.Context, tenantID, providerCallID string, seconds int) error {
	if tenantID == "" || providerCallID == "" {
		return ErrInvalidArgument
	}
	if seconds <= 0 {
		return ErrInvalidArgument
	}

	_, err := s.repo.Append(ctx, Record{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ProviderCallID: providerCallID,
		Seconds:        seconds,
		CreatedAt:      s.clock().UTC(),
	})
	return err
}

// RollupFor returns the tenant's aggregate for a period ("2006-01"). An
// empty period means the current one.
func (s *Recorder) RollupFor(ctx context.Context, tenantID, period string) (Rollup, bool, error) {
	if tenantID == "" {
		return Rollup{}, false, ErrInvalidArgument
	}
	if period == "" {
		period = PeriodOf(s.clock())
	}
	return s.repo.RollupFor(ctx, tenantID, period)
}

// PeriodOf renders the UTC rollup period for a point in time.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}
