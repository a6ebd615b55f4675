package usage

import (
	"context"
	"database/sql"
	"errors"

	"call-relay/pkg/utils"
)

// PostgresRepo assumes `usage_records` (unique on provider_call_id) and
// `usage_rollups` (primary key (tenant_id, period)) tables.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, rec Record) (bool, error) {
	var inserted bool

	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const insert = `
INSERT INTO usage_records (id, tenant_id, provider_call_id, seconds, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (provider_call_id) DO NOTHING
`
		res, err := tx.ExecContext(ctx, insert,
			rec.ID,
			rec.TenantID,
			rec.ProviderCallID,
			rec.Seconds,
			rec.CreatedAt,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// Duplicate delivery; the rollup already counts this call.
			return nil
		}
		inserted = true

		const upsert = `
INSERT INTO usage_rollups (tenant_id, period, total_seconds, call_count, updated_at)
VALUES ($1,$2,$3,1,$4)
ON CONFLICT (tenant_id, period)
DO UPDATE SET total_seconds = usage_rollups.total_seconds + EXCLUDED.total_seconds,
              call_count = usage_rollups.call_count + 1,
              updated_at = EXCLUDED.updated_at
`
		_, err = tx.ExecContext(ctx, upsert,
			rec.TenantID,
			PeriodOf(rec.CreatedAt),
			rec.Seconds,
			rec.CreatedAt,
		)
		return err
	})

	return inserted, err
}

func (r *PostgresRepo) RollupFor(ctx context.Context, tenantID, period string) (Rollup, bool, error) {
	const q = `
SELECT tenant_id, period, total_seconds, call_count, updated_at
FROM usage_rollups
WHERE tenant_id = $1 AND period = $2
`
	var out Rollup
	err := r.db.QueryRowContext(ctx, q, tenantID, period).Scan(
		&out.TenantID,
		&out.Period,
		&out.TotalSeconds,
		&out.CallCount,
		&out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rollup{}, false, nil
		}
		return Rollup{}, false, err
	}
	return out, true, nil
}
