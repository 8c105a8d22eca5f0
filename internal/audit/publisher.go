package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sink mirrors entries to an external system (Kafka, a SIEM). The store
// remains the source of truth; sink failures are logged, never surfaced.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Publisher is the single write path for audit entries. It assigns ids and
// timestamps, appends to the store, and fans out to an optional sink.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
	clock  func() time.Time
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithSink mirrors every appended entry to sink.
func WithSink(sink Sink) PublisherOption {
	return func(p *Publisher) { p.sink = sink }
}

// WithClock overrides the timestamp source for tests.
func WithClock(clock func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewPublisher(store Store, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: logger, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Emit appends one entry. The store append participates in any transaction
// carried by ctx; the sink publish is best-effort and happens after.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = p.clock()
	}
	if err := p.store.Append(ctx, entry); err != nil {
		return err
	}
	if p.sink != nil {
		if err := p.sink.Publish(ctx, entry); err != nil {
			p.logger.WarnContext(ctx, "audit sink publish failed",
				"request_id", entry.RequestID,
				"event", string(entry.Event),
				"error", err.Error(),
			)
		}
	}
	return nil
}

// History returns the ordered trail for one request.
func (p *Publisher) History(ctx context.Context, requestID string) ([]Entry, error) {
	return p.store.ListByRequest(ctx, requestID)
}
