//go:build integration

package ingest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"accessgate/internal/ingest"
	"accessgate/pkg/testutil/containers"
)

func TestRedisSeenStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	store := ingest.NewRedisSeenStore(rc.Client)
	ctx := context.Background()

	first, err := store.MarkSeen(ctx, "msg-1")
	require.NoError(t, err)
	require.True(t, first)

	again, err := store.MarkSeen(ctx, "msg-1")
	require.NoError(t, err)
	require.False(t, again)

	other, err := store.MarkSeen(ctx, "msg-2")
	require.NoError(t, err)
	require.True(t, other)
}
