package provision

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"accessgate/internal/request"
)

// Invocation records one simulated tool call.
type Invocation struct {
	Tool      string
	RequestID string
	Requester string
	Resource  string
}

// SimulatedProvisioner succeeds without touching any real system. It stands
// in for an MCP client in demos and keeps a record of every invocation so
// operators (and tests) can see what would have been granted.
type SimulatedProvisioner struct {
	logger *slog.Logger

	mu          sync.Mutex
	invocations []Invocation
}

func NewSimulatedProvisioner(logger *slog.Logger) *SimulatedProvisioner {
	return &SimulatedProvisioner{logger: logger}
}

func (p *SimulatedProvisioner) Invoke(ctx context.Context, tool string, req *request.AccessRequest) (Outcome, error) {
	p.mu.Lock()
	p.invocations = append(p.invocations, Invocation{
		Tool:      tool,
		RequestID: req.ID,
		Requester: req.Requester,
		Resource:  req.Resource,
	})
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "simulated provisioning call",
		"tool", tool,
		"request_id", req.ID,
		"requester", req.Requester,
		"resource", req.Resource,
	)

	return Outcome{
		Success: true,
		Detail:  fmt.Sprintf("granted %s access to %s for %s (simulated)", req.AccessType, req.Resource, req.Requester),
	}, nil
}

// Invocations returns a copy of the call record.
func (p *SimulatedProvisioner) Invocations() []Invocation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Invocation{}, p.invocations...)
}
