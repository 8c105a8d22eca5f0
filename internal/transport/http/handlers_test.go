package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"accessgate/internal/approval"
	"accessgate/internal/audit"
	"accessgate/internal/detect"
	"accessgate/internal/ingest"
	"accessgate/internal/notify"
	"accessgate/internal/platform/metrics"
	"accessgate/internal/platform/tx"
	"accessgate/internal/provision"
	"accessgate/internal/request"
	"accessgate/pkg/testutil"
)

// HandlersSuite drives the full router against a real workflow service
// backed by in-memory stores and the simulated provisioner.
type HandlersSuite struct {
	suite.Suite
	router  http.Handler
	service *approval.Service
	ctx     context.Context
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store := request.NewInMemoryStore()
	auditLog := audit.NewPublisher(audit.NewInMemoryStore(), logger)
	dispatcher := provision.NewDispatcher(provision.NewSimulatedProvisioner(logger), logger)

	s.service = approval.NewService(
		store,
		auditLog,
		notify.Nop{},
		dispatcher,
		tx.NewShardedRunner(),
		logger,
		approval.WithMetrics(m),
	)
	pipeline := ingest.NewPipeline(
		ingest.NewStaticSource(ingest.DemoMessages()),
		detect.NewKeywordDetector(),
		s.service,
		ingest.NewMemorySeenStore(),
		logger,
		ingest.WithMetrics(m),
	)
	s.router = NewRouter(New(s.service, pipeline, logger), logger, m, registry)
	s.ctx = context.Background()
}

// createRequest seeds one pending request through the service.
func (s *HandlersSuite) createRequest() *request.AccessRequest {
	req, err := s.service.Create(s.ctx, request.Candidate{
		Requester:  "alice@corp.example",
		Resource:   "production database",
		AccessType: request.AccessRead,
		Urgency:    request.UrgencyMedium,
		Source:     request.SourceEmail{MessageID: "m-1", From: "alice@corp.example", Subject: "Access Request: production database"},
	})
	s.Require().NoError(err)
	return req
}

func (s *HandlersSuite) TestHealthz() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlersSuite) TestMetricsEndpoint() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlersSuite) TestIngestRun() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/run", map[string]int{"limit": 0})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)

	summary := testutil.UnmarshalResponse[ingest.Summary](s.T(), rr)
	s.Equal(3, summary.EmailsProcessed)
	s.Equal(2, summary.RequestsCreated)

	// A second run is fully deduplicated.
	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/run", nil))
	testutil.AssertStatusOK(s.T(), rr)
	summary = testutil.UnmarshalResponse[ingest.Summary](s.T(), rr)
	s.Equal(0, summary.RequestsCreated)
	s.Equal(3, summary.Skipped)
}

func (s *HandlersSuite) TestGetRequest() {
	created := s.createRequest()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/requests/"+created.ID))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "state", "pending")
	testutil.AssertJSONContains(s.T(), rr, "requester", "alice@corp.example")
}

func (s *HandlersSuite) TestGetRequestNotFound() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/requests/nope"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *HandlersSuite) TestListPending() {
	s.createRequest()
	s.createRequest()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/requests/pending"))
	testutil.AssertStatusOK(s.T(), rr)
	list := testutil.UnmarshalResponse[listResponse](s.T(), rr)
	s.Equal(2, list.Count)
}

func (s *HandlersSuite) TestListByState() {
	created := s.createRequest()
	_, err := s.service.Reject(s.ctx, created.ID, "admin", "")
	s.Require().NoError(err)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/requests?state=rejected"))
	testutil.AssertStatusOK(s.T(), rr)
	list := testutil.UnmarshalResponse[listResponse](s.T(), rr)
	s.Require().Equal(1, list.Count)
	s.Equal(created.ID, list.Requests[0].ID)
}

func (s *HandlersSuite) TestListByUnknownState() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/requests?state=bogus"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlersSuite) TestApproveFlow() {
	created := s.createRequest()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/requests/"+created.ID+"/approve",
		map[string]string{"approver": "admin@corp.example", "comments": "ok"}))
	testutil.AssertStatusOK(s.T(), rr)
	// The simulated provisioner always succeeds.
	testutil.AssertJSONContains(s.T(), rr, "state", "provisioned")
	testutil.AssertJSONContains(s.T(), rr, "decided_by", "admin@corp.example")
}

func (s *HandlersSuite) TestApproveRequiresApprover() {
	created := s.createRequest()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/requests/"+created.ID+"/approve", map[string]string{"comments": "ok"}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_failed")
}

func (s *HandlersSuite) TestApproveMalformedBody() {
	created := s.createRequest()

	rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost,
		"/requests/"+created.ID+"/approve", "{not json"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlersSuite) TestDoubleDecisionConflicts() {
	created := s.createRequest()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/requests/"+created.ID+"/reject", map[string]string{"approver": "admin"}))
	testutil.AssertStatusOK(s.T(), rr)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/requests/"+created.ID+"/approve", map[string]string{"approver": "admin"}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_state")
}

func (s *HandlersSuite) TestProvisionFromPendingConflicts() {
	created := s.createRequest()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost,
		"/requests/"+created.ID+"/provision"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_state")
}

func (s *HandlersSuite) TestHistory() {
	created := s.createRequest()
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/requests/"+created.ID+"/approve", map[string]string{"approver": "admin"}))
	testutil.AssertStatusOK(s.T(), rr)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
		"/requests/"+created.ID+"/history"))
	testutil.AssertStatusOK(s.T(), rr)
	history := testutil.UnmarshalResponse[historyResponse](s.T(), rr)
	s.Require().Len(history.Entries, 3)
	s.Equal("detected", history.Entries[0].Event)
	s.Equal("approved", history.Entries[1].Event)
	s.Equal("provisioned", history.Entries[2].Event)

	for _, entry := range history.Entries {
		_, err := time.Parse(time.RFC3339, entry.Timestamp)
		s.NoError(err)
	}
}

func (s *HandlersSuite) TestHistoryNotFound() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/requests/nope/history"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}
