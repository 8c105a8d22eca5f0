//go:build integration

package approval_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"accessgate/internal/approval"
	"accessgate/internal/audit"
	"accessgate/internal/notify"
	"accessgate/internal/platform/tx"
	"accessgate/internal/provision"
	"accessgate/internal/request"
	"accessgate/pkg/testutil/containers"
)

// WorkflowPostgresSuite runs the approval workflow against real Postgres, so
// the transaction runner, the guarded updates, and the audit append all
// execute the production code path.
type WorkflowPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	service  *approval.Service
	ctx      context.Context
}

func TestWorkflowPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(WorkflowPostgresSuite))
}

func (s *WorkflowPostgresSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = approval.NewService(
		request.NewPostgresStore(s.postgres.DB),
		audit.NewPublisher(audit.NewPostgresStore(s.postgres.DB), logger),
		notify.Nop{},
		provision.NewDispatcher(provision.NewSimulatedProvisioner(logger), logger),
		tx.NewDBRunner(s.postgres.DB),
		logger,
	)
}

func (s *WorkflowPostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "audit_entries", "access_requests"))
}

func (s *WorkflowPostgresSuite) create() *request.AccessRequest {
	req, err := s.service.Create(s.ctx, request.Candidate{
		Requester:     "john.doe@company.com",
		Resource:      "Production Database",
		AccessType:    request.AccessRead,
		Justification: "quarterly reporting",
		Urgency:       request.UrgencyMedium,
		Source: request.SourceEmail{
			MessageID: "demo-001",
			From:      "john.doe@company.com",
			Subject:   "Access Request: Production Database",
		},
	})
	s.Require().NoError(err)
	return req
}

func (s *WorkflowPostgresSuite) TestApproveEndToEnd() {
	req := s.create()

	updated, err := s.service.Approve(s.ctx, req.ID, "admin@company.com", "approved")
	s.Require().NoError(err)
	s.Equal(request.StateProvisioned, updated.State)
	s.Require().NotNil(updated.ProvisionedAt)

	trail, err := s.service.History(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Require().Len(trail, 3)
	s.Equal(audit.EventDetected, trail[0].Event)
	s.Equal(audit.EventApproved, trail[1].Event)
	s.Equal(audit.EventProvisioned, trail[2].Event)
	s.Equal("grant_database_access", trail[2].Actor)
}

func (s *WorkflowPostgresSuite) TestRejectIsTerminal() {
	req := s.create()

	_, err := s.service.Reject(s.ctx, req.ID, "admin@company.com", "no business need")
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, req.ID, "admin@company.com", "")
	s.Require().Error(err)

	current, err := s.service.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(request.StateRejected, current.State)

	trail, err := s.service.History(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Len(trail, 2)
}

func (s *WorkflowPostgresSuite) TestConcurrentDecisions() {
	req := s.create()

	type result struct{ err error }
	results := make(chan result, 2)
	for _, approver := range []string{"admin-a@company.com", "admin-b@company.com"} {
		go func() {
			_, err := s.service.Approve(s.ctx, req.ID, approver, "")
			results <- result{err: err}
		}()
	}

	var succeeded, failed int
	for range 2 {
		r := <-results
		if r.err == nil {
			succeeded++
		} else {
			failed++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, failed)

	trail, err := s.service.History(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Len(trail, 3)
}
