package request

import (
	"context"
	"sort"
	"sync"
	"time"

	"accessgate/pkg/platform/sentinel"
)

// InMemoryStore keeps requests in a process-local map. It is the default
// backend for demos and unit tests; all methods are safe for concurrent use.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*AccessRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]*AccessRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, req *AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return req.Clone(), nil
}

func (s *InMemoryStore) ListPending(ctx context.Context) ([]*AccessRequest, error) {
	return s.ListByState(ctx, StatePending)
}

func (s *InMemoryStore) ListByState(_ context.Context, state State) ([]*AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*AccessRequest, 0)
	for _, req := range s.requests {
		if req.State == state {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) RecordDecision(_ context.Context, id string, to State, decidedBy, comments string, decidedAt time.Time) (*AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.State != StatePending || !CanTransition(req.State, to) {
		return nil, sentinel.ErrInvalidState
	}
	req.State = to
	req.DecidedAt = &decidedAt
	req.DecidedBy = decidedBy
	req.DecisionComments = comments
	return req.Clone(), nil
}

func (s *InMemoryStore) RecordProvisionOutcome(_ context.Context, id string, to State, at time.Time) (*AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !CanTransition(req.State, to) {
		return nil, sentinel.ErrInvalidState
	}
	req.State = to
	if to == StateProvisioned {
		req.ProvisionedAt = &at
	}
	return req.Clone(), nil
}
