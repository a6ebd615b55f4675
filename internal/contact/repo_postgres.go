package contact

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo assumes `contacts` (unique on (tenant_id, phone)) and
// `contact_calls` (append-only) tables.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) FindByPhone(ctx context.Context, tenantID, phone string) (Contact, bool, error) {
	const q = `
SELECT id, tenant_id, phone, COALESCE(name, ''), COALESCE(email, ''),
       COALESCE(conversation_summary, ''), total_calls, last_call_at,
       created_at, updated_at
FROM contacts
WHERE tenant_id = $1 AND phone = $2
`
	var c Contact
	err := r.db.QueryRowContext(ctx, q, tenantID, phone).Scan(
		&c.ID,
		&c.TenantID,
		&c.Phone,
		&c.Name,
		&c.Email,
		&c.ConversationSummary,
		&c.TotalCalls,
		&c.LastCallAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, false, nil
		}
		return Contact{}, false, err
	}
	return c, true, nil
}

func (r *PostgresRepo) Create(ctx context.Context, c Contact) (Contact, error) {
	const q = `
INSERT INTO contacts (
  id, tenant_id, phone, name, email, conversation_summary, total_calls,
  last_call_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
ON CONFLICT (tenant_id, phone) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.TenantID,
		c.Phone,
		nullable(c.Name),
		nullable(c.Email),
		nullable(c.ConversationSummary),
		c.TotalCalls,
		c.LastCallAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return Contact{}, err
	}
	// A concurrent creation may have won the conflict; re-read so both
	// callers continue with the same row.
	out, ok, err := r.FindByPhone(ctx, c.TenantID, c.Phone)
	if err != nil {
		return Contact{}, err
	}
	if !ok {
		return Contact{}, errors.New("contact: create read-back failed")
	}
	return out, nil
}

func (r *PostgresRepo) InsertCallRecord(ctx context.Context, rec CallRecord) error {
	const q = `
INSERT INTO contact_calls (
  id, contact_id, provider_call_id, summary, transcript, outcome,
  duration_seconds, called_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.ContactID,
		rec.ProviderCallID,
		nullable(rec.Summary),
		nullable(rec.Transcript),
		rec.Outcome,
		rec.DurationSeconds,
		rec.CalledAt,
	)
	return err
}

func (r *PostgresRepo) FetchIdentity(ctx context.Context, contactID string) (string, string, error) {
	const q = `SELECT COALESCE(name, ''), COALESCE(email, '') FROM contacts WHERE id = $1`
	var name, email string
	err := r.db.QueryRowContext(ctx, q, contactID).Scan(&name, &email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", nil
		}
		return "", "", err
	}
	return name, email, nil
}

func (r *PostgresRepo) ApplyCallResult(ctx context.Context, contactID string, u CallResult) error {
	const q = `
UPDATE contacts
SET total_calls = $2,
    last_call_at = $3,
    updated_at = $4,
    conversation_summary = COALESCE($5, conversation_summary),
    name = COALESCE($6, name),
    email = COALESCE($7, email)
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, q,
		contactID,
		u.TotalCalls,
		u.LastCallAt,
		u.UpdatedAt,
		u.ConversationSummary,
		u.Name,
		u.Email,
	)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
