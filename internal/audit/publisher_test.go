package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (r *recordingSink) Publish(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

type PublisherSuite struct {
	suite.Suite
	store *InMemoryStore
	sink  *recordingSink
	pub   *Publisher
	ctx   context.Context
	now   time.Time
}

func (s *PublisherSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.sink = &recordingSink{}
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.pub = NewPublisher(s.store, logger,
		WithSink(s.sink),
		WithClock(func() time.Time { return s.now }),
	)
	s.ctx = context.Background()
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestEmitAssignsIDAndTimestamp() {
	err := s.pub.Emit(s.ctx, Entry{RequestID: "req-1", Event: EventDetected, Actor: "alice@corp.example"})
	s.Require().NoError(err)

	trail, err := s.pub.History(s.ctx, "req-1")
	s.Require().NoError(err)
	s.Require().Len(trail, 1)
	s.NotEmpty(trail[0].ID)
	s.True(trail[0].Timestamp.Equal(s.now))
}

func (s *PublisherSuite) TestEmitKeepsExplicitTimestamp() {
	at := s.now.Add(-time.Hour)
	err := s.pub.Emit(s.ctx, Entry{RequestID: "req-1", Event: EventApproved, Actor: "admin", Timestamp: at})
	s.Require().NoError(err)

	trail, err := s.pub.History(s.ctx, "req-1")
	s.Require().NoError(err)
	s.Require().Len(trail, 1)
	s.True(trail[0].Timestamp.Equal(at))
}

func (s *PublisherSuite) TestHistoryPreservesEmissionOrder() {
	events := []Event{EventDetected, EventApproved, EventProvisioned}
	for _, event := range events {
		s.Require().NoError(s.pub.Emit(s.ctx, Entry{RequestID: "req-1", Event: event, Actor: "x"}))
	}
	s.Require().NoError(s.pub.Emit(s.ctx, Entry{RequestID: "req-2", Event: EventDetected, Actor: "y"}))

	trail, err := s.pub.History(s.ctx, "req-1")
	s.Require().NoError(err)
	s.Require().Len(trail, 3)
	for i, event := range events {
		s.Equal(event, trail[i].Event)
	}
}

func (s *PublisherSuite) TestEmitMirrorsToSink() {
	s.Require().NoError(s.pub.Emit(s.ctx, Entry{RequestID: "req-1", Event: EventDetected, Actor: "x"}))
	s.Require().Len(s.sink.entries, 1)
	s.Equal("req-1", s.sink.entries[0].RequestID)
}

func (s *PublisherSuite) TestSinkFailureDoesNotFailEmit() {
	s.sink.err = errors.New("broker down")
	s.Require().NoError(s.pub.Emit(s.ctx, Entry{RequestID: "req-1", Event: EventDetected, Actor: "x"}))

	// The store still has the entry.
	trail, err := s.pub.History(s.ctx, "req-1")
	s.Require().NoError(err)
	s.Len(trail, 1)
}

func (s *PublisherSuite) TestHistoryForUnknownRequestIsEmpty() {
	trail, err := s.pub.History(s.ctx, "nope")
	s.Require().NoError(err)
	s.Empty(trail)
}
