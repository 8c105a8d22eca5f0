package audit

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "accessgate/internal/platform/tx"
)

// PostgresStore persists audit entries in PostgreSQL. Like the request store
// it honors a transaction placed in the context, which is how an entry and
// its state change commit atomically.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_entries (id, request_id, event, actor, occurred_at, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID, entry.RequestID, string(entry.Event), entry.Actor, entry.Timestamp, entry.Detail)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRequest(ctx context.Context, requestID string) ([]Entry, error) {
	// seq preserves append order even when timestamps collide.
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, request_id, event, actor, occurred_at, detail
		FROM audit_entries
		WHERE request_id = $1
		ORDER BY seq ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry Entry
			event string
		)
		if err := rows.Scan(&entry.ID, &entry.RequestID, &event, &entry.Actor, &entry.Timestamp, &entry.Detail); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Event = Event(event)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return out, nil
}
