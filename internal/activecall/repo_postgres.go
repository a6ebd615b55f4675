package activecall

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo assumes an `active_calls` table with a unique index on
// provider_call_id.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) DeleteStartedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	const q = `DELETE FROM active_calls WHERE started_at < $1`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *PostgresRepo) Exists(ctx context.Context, providerCallID string) (bool, error) {
	const q = `SELECT 1 FROM active_calls WHERE provider_call_id = $1`
	var one int
	err := r.db.QueryRowContext(ctx, q, providerCallID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, c ActiveCall) error {
	// ON CONFLICT DO NOTHING keeps concurrent duplicate start events
	// harmless even when both pass the existence check.
	const q = `
INSERT INTO active_calls (
  id, tenant_id, provider_call_id, status, started_at, last_active_at,
  customer_number, assistant_id, type, transcript, summary
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
ON CONFLICT (provider_call_id) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.TenantID,
		c.ProviderCallID,
		c.Status,
		c.StartedAt,
		c.LastActiveAt,
		nullable(c.CustomerNumber),
		nullable(c.AssistantID),
		c.Type,
		nullable(c.Transcript),
		nullable(c.Summary),
	)
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, providerCallID string, u Update) (string, bool, error) {
	const q = `
UPDATE active_calls
SET status = $2,
    last_active_at = $3,
    summary = COALESCE($4, summary),
    transcript = COALESCE($5, transcript)
WHERE provider_call_id = $1
RETURNING tenant_id
`
	var tenantID string
	err := r.db.QueryRowContext(ctx, q,
		providerCallID,
		u.Status,
		u.LastActiveAt,
		u.Summary,
		u.Transcript,
	).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return tenantID, true, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, providerCallID string) (string, bool, error) {
	const q = `DELETE FROM active_calls WHERE provider_call_id = $1 RETURNING tenant_id`
	var tenantID string
	err := r.db.QueryRowContext(ctx, q, providerCallID).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return tenantID, true, nil
}

func (r *PostgresRepo) ListByTenant(ctx context.Context, tenantID string) ([]ActiveCall, error) {
	const q = `
SELECT id, tenant_id, provider_call_id, status, started_at, last_active_at,
       COALESCE(customer_number, ''), COALESCE(assistant_id, ''), type,
       COALESCE(transcript, ''), COALESCE(summary, '')
FROM active_calls
WHERE tenant_id = $1
ORDER BY started_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActiveCall
	for rows.Next() {
		var c ActiveCall
		if err := rows.Scan(
			&c.ID,
			&c.TenantID,
			&c.ProviderCallID,
			&c.Status,
			&c.StartedAt,
			&c.LastActiveAt,
			&c.CustomerNumber,
			&c.AssistantID,
			&c.Type,
			&c.Transcript,
			&c.Summary,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
