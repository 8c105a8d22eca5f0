// Package notify alerts humans that a new access request is waiting for a
// decision. Notification is fire-and-forget: the workflow logs failures and
// never lets them block request creation.
package notify

import (
	"context"

	"accessgate/internal/request"
)

// Notifier delivers one notification per newly created request.
type Notifier interface {
	Notify(ctx context.Context, req *request.AccessRequest) error
}

// Nop discards all notifications. Useful when notifications are disabled.
type Nop struct{}

func (Nop) Notify(context.Context, *request.AccessRequest) error { return nil }
