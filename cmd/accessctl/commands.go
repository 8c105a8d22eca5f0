package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"
)

// Wire types mirroring the server's JSON responses.

type accessRequest struct {
	ID               string      `json:"id"`
	Requester        string      `json:"requester"`
	Resource         string      `json:"resource"`
	AccessType       string      `json:"access_type"`
	Justification    string      `json:"justification"`
	Urgency          string      `json:"urgency"`
	Source           sourceEmail `json:"source"`
	State            string      `json:"state"`
	CreatedAt        string      `json:"created_at"`
	DecidedAt        string      `json:"decided_at"`
	DecidedBy        string      `json:"decided_by"`
	DecisionComments string      `json:"decision_comments"`
	ProvisionedAt    string      `json:"provisioned_at"`
}

type sourceEmail struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
}

type requestList struct {
	Requests []accessRequest `json:"requests"`
	Count    int             `json:"count"`
}

type ingestSummary struct {
	EmailsProcessed int      `json:"emails_processed"`
	RequestsCreated int      `json:"requests_created"`
	Skipped         int      `json:"skipped"`
	RequestIDs      []string `json:"request_ids"`
}

type auditEntry struct {
	Event     string `json:"event"`
	Actor     string `json:"actor"`
	Timestamp string `json:"timestamp"`
	Detail    string `json:"detail"`
}

type auditHistory struct {
	RequestID string       `json:"request_id"`
	Entries   []auditEntry `json:"entries"`
}

// output renders results either as human-readable text or raw JSON.
type output struct {
	json bool
	w    io.Writer
}

func (o output) writeJSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdProcess(c *client, out output, limit int) error {
	var summary ingestSummary
	body := map[string]int{"limit": limit}
	if err := c.post("/ingest/run", body, &summary); err != nil {
		return err
	}
	if out.json {
		return out.writeJSON(summary)
	}
	fmt.Fprintf(out.w, "processed %d email(s): %d request(s) created, %d skipped\n",
		summary.EmailsProcessed, summary.RequestsCreated, summary.Skipped)
	for _, id := range summary.RequestIDs {
		fmt.Fprintf(out.w, "  %s\n", id)
	}
	return nil
}

func cmdPending(c *client, out output) error {
	var list requestList
	if err := c.get("/requests/pending", &list); err != nil {
		return err
	}
	return writeRequestList(out, list)
}

func cmdList(c *client, out output, state string) error {
	var list requestList
	if err := c.get("/requests?state="+url.QueryEscape(state), &list); err != nil {
		return err
	}
	return writeRequestList(out, list)
}

func writeRequestList(out output, list requestList) error {
	if out.json {
		return out.writeJSON(list)
	}
	if list.Count == 0 {
		fmt.Fprintln(out.w, "no requests")
		return nil
	}
	tw := tabwriter.NewWriter(out.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tREQUESTER\tRESOURCE\tACCESS\tURGENCY\tCREATED")
	for _, r := range list.Requests {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.State, r.Requester, r.Resource, r.AccessType, r.Urgency, r.CreatedAt)
	}
	return tw.Flush()
}

func cmdShow(c *client, out output, id string) error {
	var req accessRequest
	if err := c.get("/requests/"+url.PathEscape(id), &req); err != nil {
		return err
	}
	if out.json {
		return out.writeJSON(req)
	}
	writeRequest(out.w, req)
	return nil
}

func writeRequest(w io.Writer, r accessRequest) {
	fmt.Fprintf(w, "ID:            %s\n", r.ID)
	fmt.Fprintf(w, "State:         %s\n", r.State)
	fmt.Fprintf(w, "Requester:     %s\n", r.Requester)
	fmt.Fprintf(w, "Resource:      %s\n", r.Resource)
	fmt.Fprintf(w, "Access type:   %s\n", r.AccessType)
	fmt.Fprintf(w, "Urgency:       %s\n", r.Urgency)
	if r.Justification != "" {
		fmt.Fprintf(w, "Justification: %s\n", r.Justification)
	}
	fmt.Fprintf(w, "From email:    %s (%s)\n", r.Source.Subject, r.Source.From)
	fmt.Fprintf(w, "Created:       %s\n", r.CreatedAt)
	if r.DecidedAt != "" {
		fmt.Fprintf(w, "Decided:       %s by %s\n", r.DecidedAt, r.DecidedBy)
	}
	if r.DecisionComments != "" {
		fmt.Fprintf(w, "Comments:      %s\n", r.DecisionComments)
	}
	if r.ProvisionedAt != "" {
		fmt.Fprintf(w, "Provisioned:   %s\n", r.ProvisionedAt)
	}
}

func cmdDecide(c *client, out output, id, action, approver, comments string) error {
	if approver == "" {
		return usageError(action + " requires --approver")
	}
	body := map[string]string{"approver": approver, "comments": comments}
	var req accessRequest
	if err := c.post("/requests/"+url.PathEscape(id)+"/"+action, body, &req); err != nil {
		return err
	}
	if out.json {
		return out.writeJSON(req)
	}
	fmt.Fprintf(out.w, "request %s is now %s\n", req.ID, req.State)
	return nil
}

func cmdProvision(c *client, out output, id string) error {
	var req accessRequest
	if err := c.post("/requests/"+url.PathEscape(id)+"/provision", nil, &req); err != nil {
		return err
	}
	if out.json {
		return out.writeJSON(req)
	}
	fmt.Fprintf(out.w, "request %s is now %s\n", req.ID, req.State)
	return nil
}

func cmdHistory(c *client, out output, id string) error {
	var history auditHistory
	if err := c.get("/requests/"+url.PathEscape(id)+"/history", &history); err != nil {
		return err
	}
	if out.json {
		return out.writeJSON(history)
	}
	tw := tabwriter.NewWriter(out.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tEVENT\tACTOR\tDETAIL")
	for _, e := range history.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Event, e.Actor, e.Detail)
	}
	return tw.Flush()
}
