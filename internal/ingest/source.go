// Package ingest pulls emails from a source, runs detection, and hands
// candidates to the approval workflow. Detection of different emails runs in
// parallel; a failure on one email never stops the rest.
package ingest

import (
	"context"

	"accessgate/internal/mail"
)

// Source yields a finite batch of email records. A live implementation might
// wrap IMAP; the core only requires that each yielded message is immutable.
type Source interface {
	Fetch(ctx context.Context, limit int) ([]mail.Message, error)
}

// StaticSource serves a fixed slice of messages, for demos and tests.
type StaticSource struct {
	messages []mail.Message
}

func NewStaticSource(messages []mail.Message) *StaticSource {
	return &StaticSource{messages: messages}
}

func (s *StaticSource) Fetch(_ context.Context, limit int) ([]mail.Message, error) {
	if limit <= 0 || limit > len(s.messages) {
		limit = len(s.messages)
	}
	out := make([]mail.Message, limit)
	copy(out, s.messages[:limit])
	return out, nil
}
