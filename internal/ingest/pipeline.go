package ingest

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"accessgate/internal/detect"
	"accessgate/internal/mail"
	"accessgate/internal/platform/metrics"
	"accessgate/internal/request"
)

// Workflow is the slice of the approval service the pipeline needs.
type Workflow interface {
	Create(ctx context.Context, cand request.Candidate) (*request.AccessRequest, error)
}

// Summary reports one pipeline run.
type Summary struct {
	EmailsProcessed int      `json:"emails_processed"`
	RequestsCreated int      `json:"requests_created"`
	Skipped         int      `json:"skipped"`
	RequestIDs      []string `json:"request_ids"`
}

// defaultParallelism bounds concurrent detector calls. Detection of
// different emails may proceed in parallel; ordering across emails is
// deliberately unspecified.
const defaultParallelism = 4

// Pipeline runs source -> dedupe -> detector -> workflow. It is
// partial-failure tolerant: a detector or validation error on one email is
// logged and skipped, the rest of the batch continues.
type Pipeline struct {
	source      Source
	detector    detect.Detector
	workflow    Workflow
	seen        SeenStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	parallelism int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithParallelism bounds concurrent detector calls.
func WithParallelism(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.parallelism = n
		}
	}
}

// WithMetrics attaches instrumentation.
func WithMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

func NewPipeline(source Source, detector detect.Detector, workflow Workflow, seen SeenStore, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source:      source,
		detector:    detector,
		workflow:    workflow,
		seen:        seen,
		logger:      logger,
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Run fetches up to limit emails and processes them. Only a source failure
// is returned as an error; per-email failures are absorbed into the summary.
func (p *Pipeline) Run(ctx context.Context, limit int) (Summary, error) {
	msgs, err := p.source.Fetch(ctx, limit)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	summary.EmailsProcessed = len(msgs)

	g := new(errgroup.Group)
	g.SetLimit(p.parallelism)
	for _, msg := range msgs {
		g.Go(func() error {
			p.metrics.IncEmailsProcessed()
			created, skipped := p.processOne(ctx, msg)
			mu.Lock()
			defer mu.Unlock()
			if skipped {
				summary.Skipped++
			}
			if created != nil {
				summary.RequestsCreated++
				summary.RequestIDs = append(summary.RequestIDs, created.ID)
			}
			return nil
		})
	}
	// Goroutines never return errors; Wait is just the join point.
	_ = g.Wait()

	return summary, nil
}

func (p *Pipeline) processOne(ctx context.Context, msg mail.Message) (created *request.AccessRequest, skipped bool) {
	if msg.ID != "" {
		first, err := p.seen.MarkSeen(ctx, msg.ID)
		if err != nil {
			// Dedupe is advisory; process the email rather than drop it.
			p.logger.WarnContext(ctx, "seen-store check failed, processing anyway",
				"message_id", msg.ID,
				"error", err.Error(),
			)
		} else if !first {
			p.logger.DebugContext(ctx, "skipping already-processed email", "message_id", msg.ID)
			return nil, true
		}
	}

	cand, err := p.detector.Detect(ctx, msg)
	if err != nil {
		p.logger.WarnContext(ctx, "detector failed, skipping email",
			"message_id", msg.ID,
			"from", msg.From,
			"error", err.Error(),
		)
		return nil, true
	}
	if cand == nil {
		return nil, false
	}

	req, err := p.workflow.Create(ctx, *cand)
	if err != nil {
		p.logger.WarnContext(ctx, "could not create access request from candidate",
			"message_id", msg.ID,
			"requester", cand.Requester,
			"error", err.Error(),
		)
		return nil, true
	}

	p.metrics.IncRequestsDetected()
	return req, false
}
