package ingest

import (
	"context"
	"sync"
)

// SeenStore remembers which message ids have already been processed so
// re-polling the same mailbox does not create duplicate requests.
type SeenStore interface {
	// MarkSeen records the id and reports whether this was the first time
	// it was seen. The check-and-mark is atomic.
	MarkSeen(ctx context.Context, messageID string) (first bool, err error)
}

// MemorySeenStore is the process-local SeenStore.
type MemorySeenStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemorySeenStore() *MemorySeenStore {
	return &MemorySeenStore{seen: make(map[string]struct{})}
}

func (s *MemorySeenStore) MarkSeen(_ context.Context, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[messageID]; ok {
		return false, nil
	}
	s.seen[messageID] = struct{}{}
	return true, nil
}
