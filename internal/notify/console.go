package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"accessgate/internal/request"
	"accessgate/pkg/email"
)

// Console prints a boxed summary of the pending request to a writer, the
// default notification channel for interactive use.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(_ context.Context, req *request.AccessRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule := strings.Repeat("=", 72)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "NEW ACCESS REQUEST REQUIRES APPROVAL\n")
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Request ID:  %s\n", req.ID)
	fmt.Fprintf(&b, "Requester:   %s <%s>\n", email.DisplayName(req.Requester), req.Requester)
	fmt.Fprintf(&b, "Resource:    %s\n", req.Resource)
	fmt.Fprintf(&b, "Access Type: %s\n", req.AccessType)
	fmt.Fprintf(&b, "Urgency:     %s\n", req.Urgency)
	fmt.Fprintf(&b, "\nJustification:\n  %s\n", req.Justification)
	fmt.Fprintf(&b, "\nOriginal Email:\n")
	fmt.Fprintf(&b, "  From:    %s\n", req.Source.From)
	fmt.Fprintf(&b, "  Subject: %s\n", req.Source.Subject)
	fmt.Fprintf(&b, "  Date:    %s\n", req.Source.Date)
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Approve or reject with: accessctl approve|reject %s\n", req.ID)
	fmt.Fprintf(&b, "%s\n\n", rule)

	_, err := io.WriteString(c.out, b.String())
	return err
}
