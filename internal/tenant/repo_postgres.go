package tenant

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo assumes a `tenants` table with a unique index on
// provider_org_id.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) FindByProviderOrgID(ctx context.Context, orgID string) (Tenant, bool, error) {
	const q = `
SELECT id, name, provider_org_id, provider_api_key, created_at, updated_at
FROM tenants
WHERE provider_org_id = $1
`
	return r.scanOne(ctx, q, orgID)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Tenant, bool, error) {
	const q = `
SELECT id, name, provider_org_id, provider_api_key, created_at, updated_at
FROM tenants
WHERE id = $1
`
	return r.scanOne(ctx, q, id)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Tenant, error) {
	const q = `
SELECT id, name, provider_org_id, provider_api_key, created_at, updated_at
FROM tenants
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.ProviderOrgID, &t.ProviderAPIKey, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) scanOne(ctx context.Context, q string, arg any) (Tenant, bool, error) {
	var t Tenant
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&t.ID,
		&t.Name,
		&t.ProviderOrgID,
		&t.ProviderAPIKey,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tenant{}, false, nil
		}
		return Tenant{}, false, err
	}
	return t, true, nil
}
