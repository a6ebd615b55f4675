package history

import (
	"context"
	"database/sql"
)

// PostgresRepo assumes a `call_history` table with a unique index on
// provider_call_id.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Exists(ctx context.Context, providerCallID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM call_history WHERE provider_call_id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, providerCallID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) Insert(ctx context.Context, rec CallHistoryRecord) error {
	const q = `
INSERT INTO call_history (
	id, tenant_id, provider_call_id, assistant_id, customer_number,
	status, ended_reason, outcome, duration_seconds, cost,
	transcript, summary, started_at, ended_at, synced_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (provider_call_id) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.TenantID,
		rec.ProviderCallID,
		rec.AssistantID,
		rec.CustomerNumber,
		rec.Status,
		rec.EndedReason,
		rec.Outcome,
		rec.DurationSeconds,
		rec.Cost,
		rec.Transcript,
		rec.Summary,
		rec.StartedAt,
		rec.EndedAt,
		rec.SyncedAt,
	)
	return err
}

func (r *PostgresRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]CallHistoryRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	const q = `
SELECT id, tenant_id, provider_call_id, assistant_id, customer_number,
       status, ended_reason, outcome, duration_seconds, cost,
       transcript, summary, started_at, ended_at, synced_at
FROM call_history
WHERE tenant_id = $1
ORDER BY started_at DESC NULLS LAST
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallHistoryRecord
	for rows.Next() {
		var rec CallHistoryRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.TenantID,
			&rec.ProviderCallID,
			&rec.AssistantID,
			&rec.CustomerNumber,
			&rec.Status,
			&rec.EndedReason,
			&rec.Outcome,
			&rec.DurationSeconds,
			&rec.Cost,
			&rec.Transcript,
			&rec.Summary,
			&rec.StartedAt,
			&rec.EndedAt,
			&rec.SyncedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
