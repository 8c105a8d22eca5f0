// Package audit records the append-only lifecycle trail of access requests.
// Entries are never mutated or deleted; the trail outlives the requests it
// describes.
package audit

import "time"

// Event names one lifecycle transition.
type Event string

const (
	EventDetected        Event = "detected"
	EventApproved        Event = "approved"
	EventRejected        Event = "rejected"
	EventProvisioned     Event = "provisioned"
	EventProvisionFailed Event = "provision_failed"
)

// Entry is one immutable record of a lifecycle event. Actor is who caused the
// transition: the requester for detected, the approver for decisions, the
// provisioning tool for outcomes.
type Entry struct {
	ID        string
	RequestID string
	Event     Event
	Actor     string
	Timestamp time.Time
	Detail    string
}
