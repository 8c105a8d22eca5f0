// Package provision maps approved access requests to named provisioning
// tools and invokes them through the Provisioner collaborator.
package provision

import (
	"context"

	"accessgate/internal/request"
)

// Outcome is what a Provisioner reports for one invocation.
type Outcome struct {
	Success bool
	Detail  string
}

// Provisioner is the external collaborator that actually grants access. The
// real implementation may call an MCP server or a ticketing system; the core
// only sees tool name in, outcome out.
type Provisioner interface {
	Invoke(ctx context.Context, tool string, req *request.AccessRequest) (Outcome, error)
}

// Func adapts a function to the Provisioner interface, for tests and small
// wiring.
type Func func(ctx context.Context, tool string, req *request.AccessRequest) (Outcome, error)

func (f Func) Invoke(ctx context.Context, tool string, req *request.AccessRequest) (Outcome, error) {
	return f(ctx, tool, req)
}

// Result is the dispatcher's record of one provisioning attempt.
type Result struct {
	Tool    string
	Success bool
	Detail  string
}
