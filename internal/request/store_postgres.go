package request

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	txcontext "accessgate/internal/platform/tx"
	"accessgate/pkg/platform/sentinel"
)

// PostgresStore persists access requests in PostgreSQL. When a transaction is
// present in the context (placed by tx.DBRunner) all statements run against
// it, so a state change and its audit entry commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const requestColumns = `id, requester, resource, access_type, justification, urgency,
	email_message_id, email_from, email_subject, email_date, email_body,
	state, created_at, decided_at, decided_by, decision_comments, provisioned_at`

func (s *PostgresStore) Create(ctx context.Context, req *AccessRequest) error {
	query := `
		INSERT INTO access_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		req.ID, req.Requester, req.Resource, string(req.AccessType), req.Justification, string(req.Urgency),
		req.Source.MessageID, req.Source.From, req.Source.Subject, req.Source.Date, req.Source.Body,
		string(req.State), req.CreatedAt, req.DecidedAt, req.DecidedBy, req.DecisionComments, req.ProvisionedAt,
	)
	if err != nil {
		return fmt.Errorf("insert access request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert access request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*AccessRequest, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM access_requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*AccessRequest, error) {
	return s.ListByState(ctx, StatePending)
}

func (s *PostgresStore) ListByState(ctx context.Context, state State) ([]*AccessRequest, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+requestColumns+` FROM access_requests WHERE state = $1 ORDER BY created_at ASC, id ASC`,
		string(state))
	if err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	defer rows.Close()

	var out []*AccessRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) RecordDecision(ctx context.Context, id string, to State, decidedBy, comments string, decidedAt time.Time) (*AccessRequest, error) {
	if !CanTransition(StatePending, to) {
		return nil, sentinel.ErrInvalidState
	}
	query := `
		UPDATE access_requests
		SET state = $3, decided_at = $4, decided_by = $5, decision_comments = $6
		WHERE id = $1 AND state = $2
		RETURNING ` + requestColumns
	row := s.execer(ctx).QueryRowContext(ctx, query,
		id, string(StatePending), string(to), decidedAt, decidedBy, comments)
	req, err := scanRequest(row)
	if err == sentinel.ErrNotFound {
		return nil, s.classifyMiss(ctx, id)
	}
	return req, err
}

func (s *PostgresStore) RecordProvisionOutcome(ctx context.Context, id string, to State, at time.Time) (*AccessRequest, error) {
	if to != StateProvisioned && to != StateProvisioningFailed {
		return nil, sentinel.ErrInvalidState
	}
	var provisionedAt *time.Time
	if to == StateProvisioned {
		provisionedAt = &at
	}
	fromStates := []string{string(StateApproved), string(StateProvisioningFailed)}
	query := `
		UPDATE access_requests
		SET state = $2, provisioned_at = COALESCE($3, provisioned_at)
		WHERE id = $1 AND state = ANY($4)
		RETURNING ` + requestColumns
	row := s.execer(ctx).QueryRowContext(ctx, query,
		id, string(to), provisionedAt, pq.Array(fromStates))
	req, err := scanRequest(row)
	if err == sentinel.ErrNotFound {
		return nil, s.classifyMiss(ctx, id)
	}
	return req, err
}

// classifyMiss distinguishes an unknown id from an illegal state once a
// guarded UPDATE matched no row.
func (s *PostgresStore) classifyMiss(ctx context.Context, id string) error {
	var state string
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT state FROM access_requests WHERE id = $1`, id).Scan(&state)
	if err == sql.ErrNoRows {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify update miss: %w", err)
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*AccessRequest, error) {
	var (
		req           AccessRequest
		accessType    string
		urgency       string
		state         string
		decidedAt     sql.NullTime
		provisionedAt sql.NullTime
	)
	err := row.Scan(
		&req.ID, &req.Requester, &req.Resource, &accessType, &req.Justification, &urgency,
		&req.Source.MessageID, &req.Source.From, &req.Source.Subject, &req.Source.Date, &req.Source.Body,
		&state, &req.CreatedAt, &decidedAt, &req.DecidedBy, &req.DecisionComments, &provisionedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan access request: %w", err)
	}
	req.AccessType = AccessType(accessType)
	req.Urgency = Urgency(urgency)
	req.State = State(state)
	if decidedAt.Valid {
		t := decidedAt.Time
		req.DecidedAt = &t
	}
	if provisionedAt.Valid {
		t := provisionedAt.Time
		req.ProvisionedAt = &t
	}
	return &req, nil
}
