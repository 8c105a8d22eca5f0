package audit

import "context"

// Store persists audit entries. Append-only: there is no update or delete.
type Store interface {
	Append(ctx context.Context, entry Entry) error

	// ListByRequest returns the trail for one request id in append order.
	ListByRequest(ctx context.Context, requestID string) ([]Entry, error)
}
