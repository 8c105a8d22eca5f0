// Package mail defines the immutable email record the rest of the system
// consumes. How messages are obtained (IMAP, an API, static demo data) is the
// source collaborator's concern; see internal/ingest.
package mail

// Message is one raw email. Date is kept as the raw header string rather than
// a parsed time: sources disagree on formats and nothing downstream orders by
// it.
type Message struct {
	ID      string
	From    string
	Subject string
	Date    string
	Body    string
}
