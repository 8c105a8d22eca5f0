package httptransport

import (
	"time"

	"accessgate/internal/audit"
	"accessgate/internal/request"
)

// decisionRequest is the body for approve and reject.
type decisionRequest struct {
	Approver string `json:"approver"`
	Comments string `json:"comments,omitempty"`
}

// ingestRequest is the body for a manual ingest run.
type ingestRequest struct {
	Limit int `json:"limit,omitempty"`
}

type sourceEmailResponse struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Date      string `json:"date,omitempty"`
}

type requestResponse struct {
	ID               string              `json:"id"`
	Requester        string              `json:"requester"`
	Resource         string              `json:"resource"`
	AccessType       string              `json:"access_type"`
	Justification    string              `json:"justification,omitempty"`
	Urgency          string              `json:"urgency"`
	Source           sourceEmailResponse `json:"source"`
	State            string              `json:"state"`
	CreatedAt        string              `json:"created_at"`
	DecidedAt        string              `json:"decided_at,omitempty"`
	DecidedBy        string              `json:"decided_by,omitempty"`
	DecisionComments string              `json:"decision_comments,omitempty"`
	ProvisionedAt    string              `json:"provisioned_at,omitempty"`
}

type listResponse struct {
	Requests []requestResponse `json:"requests"`
	Count    int               `json:"count"`
}

type auditEntryResponse struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	Event     string `json:"event"`
	Actor     string `json:"actor"`
	Timestamp string `json:"timestamp"`
	Detail    string `json:"detail,omitempty"`
}

type historyResponse struct {
	RequestID string               `json:"request_id"`
	Entries   []auditEntryResponse `json:"entries"`
}

func toRequestResponse(r *request.AccessRequest) requestResponse {
	resp := requestResponse{
		ID:            r.ID,
		Requester:     r.Requester,
		Resource:      r.Resource,
		AccessType:    string(r.AccessType),
		Justification: r.Justification,
		Urgency:       string(r.Urgency),
		Source: sourceEmailResponse{
			MessageID: r.Source.MessageID,
			From:      r.Source.From,
			Subject:   r.Source.Subject,
			Date:      r.Source.Date,
		},
		State:            string(r.State),
		CreatedAt:        r.CreatedAt.UTC().Format(time.RFC3339),
		DecidedBy:        r.DecidedBy,
		DecisionComments: r.DecisionComments,
	}
	if r.DecidedAt != nil {
		resp.DecidedAt = r.DecidedAt.UTC().Format(time.RFC3339)
	}
	if r.ProvisionedAt != nil {
		resp.ProvisionedAt = r.ProvisionedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toListResponse(reqs []*request.AccessRequest) listResponse {
	out := listResponse{Requests: make([]requestResponse, 0, len(reqs))}
	for _, r := range reqs {
		out.Requests = append(out.Requests, toRequestResponse(r))
	}
	out.Count = len(out.Requests)
	return out
}

func toHistoryResponse(requestID string, entries []audit.Entry) historyResponse {
	out := historyResponse{RequestID: requestID, Entries: make([]auditEntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, auditEntryResponse{
			ID:        e.ID,
			RequestID: e.RequestID,
			Event:     string(e.Event),
			Actor:     e.Actor,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Detail:    e.Detail,
		})
	}
	return out
}
