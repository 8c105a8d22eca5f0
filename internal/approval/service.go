// Package approval implements the request lifecycle workflow: create pending
// requests from detected candidates, record human decisions, and drive
// provisioning, with every transition audited.
package approval

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"accessgate/internal/audit"
	"accessgate/internal/platform/metrics"
	txcontext "accessgate/internal/platform/tx"
	"accessgate/internal/provision"
	"accessgate/internal/request"
	domainerrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/sentinel"
)

// Notifier alerts a human that a request is waiting. Failures are logged,
// never surfaced: notification must not block request creation.
type Notifier interface {
	Notify(ctx context.Context, req *request.AccessRequest) error
}

// Dispatcher runs the external provisioning call for an approved request.
type Dispatcher interface {
	Provision(ctx context.Context, req *request.AccessRequest) provision.Result
}

// AuditLog is the slice of the audit publisher the workflow uses.
type AuditLog interface {
	Emit(ctx context.Context, entry audit.Entry) error
	History(ctx context.Context, requestID string) ([]audit.Entry, error)
}

// defaultProvisionTimeout bounds the external provisioning call so a hung
// collaborator cannot leave a request stuck.
const defaultProvisionTimeout = 30 * time.Second

// Service enforces the request state machine. All state mutations run inside
// the tx runner: serialized per request id, with the state change and its
// audit entry landing atomically. The per-id lock is never held across the
// external provisioning call, so one slow provisioner blocks nothing else.
type Service struct {
	store            request.Store
	audit            AuditLog
	notifier         Notifier
	dispatcher       Dispatcher
	runner           txcontext.Runner
	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           trace.Tracer
	clock            func() time.Time
	provisionTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithProvisionTimeout overrides the bounded wait on provisioning calls.
func WithProvisionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.provisionTimeout = d
		}
	}
}

// WithMetrics attaches instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	store request.Store,
	auditLog AuditLog,
	notifier Notifier,
	dispatcher Dispatcher,
	runner txcontext.Runner,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:            store,
		audit:            auditLog,
		notifier:         notifier,
		dispatcher:       dispatcher,
		runner:           runner,
		logger:           logger,
		tracer:           otel.Tracer("accessgate/approval"),
		clock:            time.Now,
		provisionTimeout: defaultProvisionTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create validates a candidate, stores it as a pending request, audits the
// detection, and notifies a human. Notification failure is swallowed.
func (s *Service) Create(ctx context.Context, cand request.Candidate) (*request.AccessRequest, error) {
	if err := cand.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	req := &request.AccessRequest{
		ID:            uuid.NewString(),
		Requester:     cand.Requester,
		Resource:      cand.Resource,
		AccessType:    cand.AccessType,
		Justification: cand.Justification,
		Urgency:       cand.Urgency,
		Source:        cand.Source,
		State:         request.StatePending,
		CreatedAt:     now,
	}
	if req.AccessType == "" {
		req.AccessType = request.AccessOther
	}
	if req.Urgency == "" {
		req.Urgency = request.UrgencyMedium
	}

	err := s.runner.RunInTx(ctx, req.ID, func(ctx context.Context) error {
		if err := s.store.Create(ctx, req); err != nil {
			return s.translate(err, "create request")
		}
		return s.audit.Emit(ctx, audit.Entry{
			RequestID: req.ID,
			Event:     audit.EventDetected,
			Actor:     req.Requester,
			Timestamp: now,
			Detail:    "access request detected in email: " + req.Source.Subject,
		})
	})
	if err != nil {
		return nil, err
	}

	// Exactly once per creation, after the record is committed.
	if err := s.notifier.Notify(ctx, req); err != nil {
		s.metrics.IncNotifyFailures()
		s.logger.WarnContext(ctx, "notification failed",
			"request_id", req.ID,
			"error", err.Error(),
		)
	}

	return req.Clone(), nil
}

// Approve records the decision and synchronously provisions. The returned
// request reflects the provisioning outcome (provisioned or
// provisioning_failed); a provisioning failure is not an error here, it is a
// recorded state the approver can inspect and retry.
func (s *Service) Approve(ctx context.Context, id, approver, comments string) (*request.AccessRequest, error) {
	ctx, span := s.tracer.Start(ctx, "approval.Approve",
		trace.WithAttributes(attribute.String("request.id", id)))
	defer span.End()

	decided, err := s.decide(ctx, id, request.StateApproved, audit.EventApproved, approver, comments)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDecision("approved")

	return s.runProvisioning(ctx, decided)
}

// Reject records a terminal rejection. No provisioning is triggered.
func (s *Service) Reject(ctx context.Context, id, approver, comments string) (*request.AccessRequest, error) {
	ctx, span := s.tracer.Start(ctx, "approval.Reject",
		trace.WithAttributes(attribute.String("request.id", id)))
	defer span.End()

	decided, err := s.decide(ctx, id, request.StateRejected, audit.EventRejected, approver, comments)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDecision("rejected")
	return decided, nil
}

func (s *Service) decide(ctx context.Context, id string, to request.State, event audit.Event, approver, comments string) (*request.AccessRequest, error) {
	if approver == "" {
		return nil, domainerrors.New(domainerrors.CodeValidation, "approver is required")
	}

	var decided *request.AccessRequest
	err := s.runner.RunInTx(ctx, id, func(ctx context.Context) error {
		now := s.clock()
		req, err := s.store.RecordDecision(ctx, id, to, approver, comments, now)
		if err != nil {
			return s.translate(err, "record decision")
		}
		decided = req
		return s.audit.Emit(ctx, audit.Entry{
			RequestID: id,
			Event:     event,
			Actor:     approver,
			Timestamp: now,
			Detail:    comments,
		})
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

// Provision explicitly (re-)runs provisioning for an approved or previously
// failed request. Each attempt produces a new audit entry on the same
// request; it never creates a duplicate.
func (s *Service) Provision(ctx context.Context, id string) (*request.AccessRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.State != request.StateApproved && req.State != request.StateProvisioningFailed {
		return nil, domainerrors.New(domainerrors.CodeInvalidState,
			"provisioning is only legal from approved or provisioning_failed, current state is "+string(req.State))
	}
	return s.runProvisioning(ctx, req)
}

// runProvisioning calls the dispatcher outside any per-id lock, then
// re-enters the tx runner to record the terminal outcome and its audit
// entry.
func (s *Service) runProvisioning(ctx context.Context, req *request.AccessRequest) (*request.AccessRequest, error) {
	ctx, span := s.tracer.Start(ctx, "approval.Provision",
		trace.WithAttributes(attribute.String("request.id", req.ID)))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.provisionTimeout)
	start := time.Now()
	result := s.dispatcher.Provision(callCtx, req)
	cancel()
	s.metrics.ObserveProvision(result.Tool, result.Success, time.Since(start))

	outcome := request.StateProvisioningFailed
	event := audit.EventProvisionFailed
	if result.Success {
		outcome = request.StateProvisioned
		event = audit.EventProvisioned
	}

	var updated *request.AccessRequest
	err := s.runner.RunInTx(ctx, req.ID, func(ctx context.Context) error {
		now := s.clock()
		r, err := s.store.RecordProvisionOutcome(ctx, req.ID, outcome, now)
		if err != nil {
			return s.translate(err, "record provision outcome")
		}
		updated = r
		return s.audit.Emit(ctx, audit.Entry{
			RequestID: req.ID,
			Event:     event,
			Actor:     result.Tool,
			Timestamp: now,
			Detail:    result.Detail,
		})
	})
	if err != nil {
		return nil, err
	}

	if !result.Success {
		s.logger.WarnContext(ctx, "provisioning failed",
			"request_id", req.ID,
			"tool", result.Tool,
			"detail", result.Detail,
		)
	}
	return updated, nil
}

// Get fetches one request.
func (s *Service) Get(ctx context.Context, id string) (*request.AccessRequest, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.translate(err, "get request")
	}
	return req, nil
}

// ListPending returns pending requests oldest first.
func (s *Service) ListPending(ctx context.Context) ([]*request.AccessRequest, error) {
	return s.store.ListPending(ctx)
}

// ListByState filters requests by lifecycle state.
func (s *Service) ListByState(ctx context.Context, state request.State) ([]*request.AccessRequest, error) {
	if !request.IsValidState(state) {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "unknown state: "+string(state))
	}
	return s.store.ListByState(ctx, state)
}

// History returns the ordered audit trail for one request.
func (s *Service) History(ctx context.Context, id string) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, id)
}

// translate maps store sentinels to domain errors.
func (s *Service) translate(err error, op string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, "request not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return domainerrors.Wrap(err, domainerrors.CodeInvalidState, "transition not legal from current state")
	case errors.Is(err, sentinel.ErrConflict):
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "request id collision")
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, op+" failed")
	}
}
