//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"accessgate/internal/audit"
	"accessgate/pkg/testutil/containers"
)

func TestPostgresStoreAppendAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	postgres := containers.NewPostgresContainer(t)
	store := audit.NewPostgresStore(postgres.DB)
	ctx := context.Background()

	requestID := uuid.NewString()
	events := []audit.Event{audit.EventDetected, audit.EventApproved, audit.EventProvisionFailed, audit.EventProvisioned}
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, event := range events {
		require.NoError(t, store.Append(ctx, audit.Entry{
			ID:        uuid.NewString(),
			RequestID: requestID,
			Event:     event,
			Actor:     "someone",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Detail:    "entry",
		}))
	}
	// An entry for another request must not leak into the trail.
	require.NoError(t, store.Append(ctx, audit.Entry{
		ID:        uuid.NewString(),
		RequestID: uuid.NewString(),
		Event:     audit.EventDetected,
		Actor:     "other",
		Timestamp: base,
	}))

	trail, err := store.ListByRequest(ctx, requestID)
	require.NoError(t, err)
	require.Len(t, trail, len(events))
	for i, event := range events {
		require.Equal(t, event, trail[i].Event)
	}
}
