package request

import (
	"context"
	"time"
)

// Store owns AccessRequest records for their full lifetime. Implementations
// are interface-driven so the workflow can run against memory, Postgres, or
// anything else without rewiring business code.
//
// Mutating methods enforce the state machine at the storage boundary: the
// check-and-set is atomic per request id, returning sentinel.ErrInvalidState
// when the current state does not permit the transition. This is what makes
// two concurrent approvals resolve to exactly one winner.
type Store interface {
	// Create inserts a new request. The caller assigns the id; the store
	// returns sentinel.ErrConflict if it is already taken.
	Create(ctx context.Context, req *AccessRequest) error

	// Get returns sentinel.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*AccessRequest, error)

	// ListPending returns pending requests ordered by CreatedAt ascending,
	// oldest first, so approvers see the fairest queue.
	ListPending(ctx context.Context) ([]*AccessRequest, error)

	ListByState(ctx context.Context, state State) ([]*AccessRequest, error)

	// RecordDecision moves a pending request to approved or rejected and
	// stamps the decision fields. sentinel.ErrInvalidState if the request
	// is not pending.
	RecordDecision(ctx context.Context, id string, to State, decidedBy, comments string, decidedAt time.Time) (*AccessRequest, error)

	// RecordProvisionOutcome moves an approved (or previously failed)
	// request to provisioned or provisioning_failed.
	RecordProvisionOutcome(ctx context.Context, id string, to State, at time.Time) (*AccessRequest, error)
}
