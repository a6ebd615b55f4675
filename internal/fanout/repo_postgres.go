package fanout

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PostgresSubscriberRepo assumes a `subscribers` table with `events` and
// `agent_ids` stored as jsonb arrays.
type PostgresSubscriberRepo struct {
	db *sql.DB
}

func NewPostgresSubscriberRepo(db *sql.DB) *PostgresSubscriberRepo {
	return &PostgresSubscriberRepo{db: db}
}

func (r *PostgresSubscriberRepo) Create(ctx context.Context, s Subscriber) error {
	events, err := json.Marshal(s.Events)
	if err != nil {
		return err
	}
	agents, err := json.Marshal(s.AgentIDs)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO subscribers (id, url, secret, active, events, agent_ids, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err = r.db.ExecContext(ctx, q,
		s.ID, s.URL, s.Secret, s.Active, events, agents, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *PostgresSubscriberRepo) ListActive(ctx context.Context) ([]Subscriber, error) {
	const q = `
SELECT id, url, secret, active, events, agent_ids, created_at, updated_at
FROM subscribers
WHERE active
ORDER BY created_at
`
	return r.list(ctx, q)
}

func (r *PostgresSubscriberRepo) List(ctx context.Context) ([]Subscriber, error) {
	const q = `
SELECT id, url, secret, active, events, agent_ids, created_at, updated_at
FROM subscribers
ORDER BY created_at
`
	return r.list(ctx, q)
}

func (r *PostgresSubscriberRepo) Deactivate(ctx context.Context, id string) (bool, error) {
	const q = `
UPDATE subscribers
SET active = FALSE, updated_at = NOW()
WHERE id = $1 AND active
`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresSubscriberRepo) list(ctx context.Context, q string) ([]Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		var (
			s      Subscriber
			events []byte
			agents []byte
		)
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &s.Active, &events, &agents, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &s.Events); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(agents, &s.AgentIDs); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PostgresDeliveryLogRepo writes to the append-only `delivery_logs` table.
type PostgresDeliveryLogRepo struct {
	db *sql.DB
}

func NewPostgresDeliveryLogRepo(db *sql.DB) *PostgresDeliveryLogRepo {
	return &PostgresDeliveryLogRepo{db: db}
}

func (r *PostgresDeliveryLogRepo) Append(ctx context.Context, e DeliveryLogEntry) error {
	const q = `
INSERT INTO delivery_logs (id, subscriber_id, event, payload, response_status, error_message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.SubscriberID, e.Event, e.Payload, e.ResponseStatus, e.ErrorMessage, e.CreatedAt,
	)
	return err
}
