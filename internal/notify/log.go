package notify

import (
	"context"
	"log/slog"

	"accessgate/internal/request"
)

// Log writes notifications to structured logs, for headless deployments
// where the log stream is the operator channel.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, req *request.AccessRequest) error {
	l.logger.InfoContext(ctx, "access request pending approval",
		"request_id", req.ID,
		"requester", req.Requester,
		"resource", req.Resource,
		"access_type", string(req.AccessType),
		"urgency", string(req.Urgency),
	)
	return nil
}

// Multi fans out to several notifiers. Individual failures are logged and do
// not stop the rest; the last error is returned so callers can count it.
type Multi struct {
	notifiers []Notifier
	logger    *slog.Logger
}

func NewMulti(logger *slog.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) Notify(ctx context.Context, req *request.AccessRequest) error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, req); err != nil {
			lastErr = err
			m.logger.WarnContext(ctx, "notifier failed",
				"request_id", req.ID,
				"error", err.Error(),
			)
		}
	}
	return lastErr
}
