// Package tx provides the transactional boundary used by the approval
// workflow: a state change and its audit entry must land together or not at
// all, and the check-and-transition for a given request id must be serialized
// against concurrent callers.
package tx

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Runner executes fn inside a transaction scoped to one request id. The key
// lets implementations serialize per id instead of globally, so one slow
// request never blocks the rest.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type txKey struct{}

// With injects a database transaction into the context for stores to pick up.
func With(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// From extracts the database transaction, if any, placed by a DBRunner.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// DBRunner wraps fn in a real database transaction. Stores that find the
// transaction in the context execute against it, which is what makes the
// state change and the audit append atomic in Postgres.
type DBRunner struct {
	db *sql.DB
}

func NewDBRunner(db *sql.DB) *DBRunner {
	return &DBRunner{db: db}
}

func (r *DBRunner) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(With(ctx, dbtx)); err != nil {
		_ = dbtx.Rollback()
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// numShards trades memory for contention: request ids hash across independent
// mutexes so only operations on the same id serialize.
const numShards = 128

// defaultTimeout bounds how long a transaction may run.
const defaultTimeout = 5 * time.Second

// ShardedRunner is the in-memory Runner. The memory stores cannot fail
// halfway, so mutual exclusion per request id is all that is needed for the
// atomicity guarantee.
type ShardedRunner struct {
	shards  [numShards]chan struct{}
	timeout time.Duration
}

func NewShardedRunner() *ShardedRunner {
	r := &ShardedRunner{timeout: defaultTimeout}
	for i := range r.shards {
		r.shards[i] = make(chan struct{}, 1)
	}
	return r
}

func (r *ShardedRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	shard := r.shards[hashString(key)%numShards]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-shard }()

	return fn(ctx)
}

// hashString uses FNV-1a for cheap, well-distributed shard selection.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
