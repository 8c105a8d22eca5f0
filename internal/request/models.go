// Package request holds the AccessRequest domain model and its stores.
package request

import (
	"strings"
	"time"

	domainerrors "accessgate/pkg/domain-errors"
	"accessgate/internal/mail"
)

// State is the lifecycle state of an access request.
//
// Transitions are monotonic:
//
//	pending -> approved | rejected
//	approved -> provisioned | provisioning_failed
//	provisioning_failed -> provisioned | provisioning_failed (explicit retry)
//
// rejected and provisioned are terminal.
type State string

const (
	StatePending            State = "pending"
	StateApproved           State = "approved"
	StateRejected           State = "rejected"
	StateProvisioned        State = "provisioned"
	StateProvisioningFailed State = "provisioning_failed"
)

var legalTransitions = map[State][]State{
	StatePending:            {StateApproved, StateRejected},
	StateApproved:           {StateProvisioned, StateProvisioningFailed},
	StateProvisioningFailed: {StateProvisioned, StateProvisioningFailed},
}

// CanTransition reports whether moving from -> to is legal.
func CanTransition(from, to State) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidState reports whether s is one of the known lifecycle states.
func IsValidState(s State) bool {
	switch s {
	case StatePending, StateApproved, StateRejected, StateProvisioned, StateProvisioningFailed:
		return true
	}
	return false
}

// AccessType is the kind of access requested. Free-form input is accepted and
// normalized; anything unrecognized falls back to AccessOther.
type AccessType string

const (
	AccessRead  AccessType = "read"
	AccessWrite AccessType = "write"
	AccessAdmin AccessType = "admin"
	AccessOther AccessType = "other"
)

// ParseAccessType normalizes a detector-supplied access type.
func ParseAccessType(s string) AccessType {
	switch AccessType(strings.ToLower(strings.TrimSpace(s))) {
	case AccessRead:
		return AccessRead
	case AccessWrite:
		return AccessWrite
	case AccessAdmin:
		return AccessAdmin
	default:
		return AccessOther
	}
}

// Urgency is the requester-claimed urgency level.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency normalizes a detector-supplied urgency, defaulting to medium.
func ParseUrgency(s string) Urgency {
	switch Urgency(strings.ToLower(strings.TrimSpace(s))) {
	case UrgencyLow:
		return UrgencyLow
	case UrgencyHigh:
		return UrgencyHigh
	default:
		return UrgencyMedium
	}
}

// SourceEmail references the originating message. Immutable once the request
// is created.
type SourceEmail struct {
	MessageID string
	From      string
	Subject   string
	Date      string
	Body      string
}

// SourceFromMessage copies the fields the request record keeps.
func SourceFromMessage(m mail.Message) SourceEmail {
	return SourceEmail{
		MessageID: m.ID,
		From:      m.From,
		Subject:   m.Subject,
		Date:      m.Date,
		Body:      m.Body,
	}
}

// Candidate is what a detector produces from an email: a not-yet-stored
// access request.
type Candidate struct {
	Requester     string
	Resource      string
	AccessType    AccessType
	Justification string
	Urgency       Urgency
	Source        SourceEmail
}

// Validate enforces the required fields before a request may be created.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.Requester) == "" {
		return domainerrors.New(domainerrors.CodeValidation, "requester is required")
	}
	if strings.TrimSpace(c.Resource) == "" {
		return domainerrors.New(domainerrors.CodeValidation, "resource is required")
	}
	return nil
}

// AccessRequest is the stored lifecycle record. DecidedAt, DecidedBy,
// DecisionComments and ProvisionedAt are each set exactly once.
type AccessRequest struct {
	ID               string
	Requester        string
	Resource         string
	AccessType       AccessType
	Justification    string
	Urgency          Urgency
	Source           SourceEmail
	State            State
	CreatedAt        time.Time
	DecidedAt        *time.Time
	DecidedBy        string
	DecisionComments string
	ProvisionedAt    *time.Time
}

// Decided reports whether a terminal human decision has been recorded.
func (r *AccessRequest) Decided() bool {
	return r.DecidedAt != nil
}

// Clone returns a deep copy so store callers can never mutate shared state.
func (r *AccessRequest) Clone() *AccessRequest {
	out := *r
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		out.DecidedAt = &t
	}
	if r.ProvisionedAt != nil {
		t := *r.ProvisionedAt
		out.ProvisionedAt = &t
	}
	return &out
}
