package request

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"accessgate/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newRequest(requester string, createdAt time.Time) *AccessRequest {
	return &AccessRequest{
		ID:         uuid.NewString(),
		Requester:  requester,
		Resource:   "production database",
		AccessType: AccessRead,
		Urgency:    UrgencyMedium,
		Source:     SourceEmail{MessageID: uuid.NewString(), From: requester, Subject: "Access Request"},
		State:      StatePending,
		CreatedAt:  createdAt,
	}
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	s.Run("creates and fetches a request", func() {
		req := s.newRequest("alice@corp.example", s.now)
		s.Require().NoError(s.store.Create(s.ctx, req))

		found, err := s.store.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(req.Requester, found.Requester)
		s.Equal(StatePending, found.State)
	})

	s.Run("rejects duplicate id", func() {
		req := s.newRequest("alice@corp.example", s.now)
		s.Require().NoError(s.store.Create(s.ctx, req))
		s.Require().ErrorIs(s.store.Create(s.ctx, req), sentinel.ErrConflict)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.Get(s.ctx, uuid.NewString())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned request is a copy", func() {
		req := s.newRequest("alice@corp.example", s.now)
		s.Require().NoError(s.store.Create(s.ctx, req))

		found, err := s.store.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		found.State = StateRejected

		again, err := s.store.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(StatePending, again.State)
	})
}

func (s *MemoryStoreSuite) TestListPending() {
	s.Run("orders oldest first", func() {
		newer := s.newRequest("bob@corp.example", s.now.Add(time.Hour))
		older := s.newRequest("alice@corp.example", s.now)
		s.Require().NoError(s.store.Create(s.ctx, newer))
		s.Require().NoError(s.store.Create(s.ctx, older))

		pending, err := s.store.ListPending(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(pending, 2)
		s.Equal(older.ID, pending[0].ID)
		s.Equal(newer.ID, pending[1].ID)
	})

	s.Run("excludes decided requests", func() {
		req := s.newRequest("carol@corp.example", s.now)
		s.Require().NoError(s.store.Create(s.ctx, req))
		_, err := s.store.RecordDecision(s.ctx, req.ID, StateRejected, "admin", "", s.now)
		s.Require().NoError(err)

		pending, err := s.store.ListPending(s.ctx)
		s.Require().NoError(err)
		for _, p := range pending {
			s.NotEqual(req.ID, p.ID)
		}
	})
}

func (s *MemoryStoreSuite) TestListByState() {
	approved := s.newRequest("alice@corp.example", s.now)
	pending := s.newRequest("bob@corp.example", s.now)
	s.Require().NoError(s.store.Create(s.ctx, approved))
	s.Require().NoError(s.store.Create(s.ctx, pending))
	_, err := s.store.RecordDecision(s.ctx, approved.ID, StateApproved, "admin", "", s.now)
	s.Require().NoError(err)

	got, err := s.store.ListByState(s.ctx, StateApproved)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(approved.ID, got[0].ID)
}

func (s *MemoryStoreSuite) TestRecordDecision() {
	s.Run("approves a pending request", func() {
		req := s.newRequest("alice@corp.example", s.now)
		s.Require().NoError(s.store.Create(s.ctx, req))

		decidedAt := s.now.Add(time.Minute)
		updated, err := s.store.RecordDecision(s.ctx, req.ID, StateApproved, "admin@corp.example", "looks fine", decidedAt)
		s.Require().NoError(err)
		s.Equal(StateApproved, updated.State)
		s.Equal("admin@corp.example", updated.DecidedBy)
		s.Equal("looks fine", updated.DecisionComments)
		s.Require().NotNil(updated.DecidedAt)
		s.True(updated.DecidedAt.Equal(decidedAt))
	})

	s.Run("second decision fails with ErrInvalidState", func() {
		req := s.newRequest("bob@corp.example", s.now)
		s.Require().NoError(s.store.Create(s.ctx, req))
		_, err := s.store.RecordDecision(s.ctx, req.ID, StateRejected, "admin", "no", s.now)
		s.Require().NoError(err)

		_, err = s.store.RecordDecision(s.ctx, req.ID, StateApproved, "admin", "", s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		// First decision is untouched.
		found, err := s.store.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(StateRejected, found.State)
	})

	s.Run("unknown id fails with ErrNotFound", func() {
		_, err := s.store.RecordDecision(s.ctx, uuid.NewString(), StateApproved, "admin", "", s.now)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestRecordProvisionOutcome() {
	approve := func() *AccessRequest {
		req := s.newRequest("alice@corp.example", s.now)
		s.Require().NoError(s.store.Create(s.ctx, req))
		_, err := s.store.RecordDecision(s.ctx, req.ID, StateApproved, "admin", "", s.now)
		s.Require().NoError(err)
		return req
	}

	s.Run("marks an approved request provisioned", func() {
		req := approve()
		at := s.now.Add(2 * time.Minute)
		updated, err := s.store.RecordProvisionOutcome(s.ctx, req.ID, StateProvisioned, at)
		s.Require().NoError(err)
		s.Equal(StateProvisioned, updated.State)
		s.Require().NotNil(updated.ProvisionedAt)
		s.True(updated.ProvisionedAt.Equal(at))
	})

	s.Run("failed provisioning can be retried to success", func() {
		req := approve()
		_, err := s.store.RecordProvisionOutcome(s.ctx, req.ID, StateProvisioningFailed, s.now)
		s.Require().NoError(err)

		updated, err := s.store.RecordProvisionOutcome(s.ctx, req.ID, StateProvisioned, s.now.Add(time.Minute))
		s.Require().NoError(err)
		s.Equal(StateProvisioned, updated.State)
	})

	s.Run("rejected request cannot be provisioned", func() {
		req := s.newRequest("bob@corp.example", s.now)
		s.Require().NoError(s.store.Create(s.ctx, req))
		_, err := s.store.RecordDecision(s.ctx, req.ID, StateRejected, "admin", "", s.now)
		s.Require().NoError(err)

		_, err = s.store.RecordProvisionOutcome(s.ctx, req.ID, StateProvisioned, s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("provisioned request stays terminal", func() {
		req := approve()
		_, err := s.store.RecordProvisionOutcome(s.ctx, req.ID, StateProvisioned, s.now)
		s.Require().NoError(err)

		_, err = s.store.RecordProvisionOutcome(s.ctx, req.ID, StateProvisioningFailed, s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{StatePending, StateApproved, true},
		{StatePending, StateRejected, true},
		{StatePending, StateProvisioned, false},
		{StateApproved, StateProvisioned, true},
		{StateApproved, StateProvisioningFailed, true},
		{StateApproved, StateRejected, false},
		{StateProvisioningFailed, StateProvisioned, true},
		{StateProvisioningFailed, StateProvisioningFailed, true},
		{StateRejected, StateApproved, false},
		{StateProvisioned, StateProvisioningFailed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
