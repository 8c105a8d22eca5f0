package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessgate/internal/request"
)

func sampleRequest() *request.AccessRequest {
	return &request.AccessRequest{
		ID:            "req-42",
		Requester:     "jane.smith@company.com",
		Resource:      "AWS S3 bucket",
		AccessType:    request.AccessWrite,
		Justification: "restore deleted campaign data",
		Urgency:       request.UrgencyHigh,
		Source: request.SourceEmail{
			From:    "jane.smith@company.com",
			Subject: "Urgent: AWS S3 Access Needed",
			Date:    "Mon, 6 Jan 2026 11:45:00 -0800",
		},
		State:     request.StatePending,
		CreatedAt: time.Date(2026, 1, 6, 11, 45, 0, 0, time.UTC),
	}
}

func TestConsoleNotify(t *testing.T) {
	var buf strings.Builder
	c := NewConsole(&buf)

	require.NoError(t, c.Notify(context.Background(), sampleRequest()))

	out := buf.String()
	assert.Contains(t, out, "NEW ACCESS REQUEST REQUIRES APPROVAL")
	assert.Contains(t, out, "req-42")
	assert.Contains(t, out, "Jane Smith <jane.smith@company.com>")
	assert.Contains(t, out, "AWS S3 bucket")
	assert.Contains(t, out, "accessctl approve|reject req-42")
}

func TestSlackNotify(t *testing.T) {
	var received slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewSlack(server.URL, WithSlackChannel("#access-requests"), WithSlackClient(server.Client()))
	require.NoError(t, s.Notify(context.Background(), sampleRequest()))

	assert.Equal(t, "accessgate", received.Username)
	assert.Equal(t, "#access-requests", received.Channel)
	require.Len(t, received.Attachments, 1)
	attachment := received.Attachments[0]
	assert.Equal(t, "danger", attachment.Color)
	assert.Contains(t, attachment.Text, "jane.smith@company.com")
	assert.Contains(t, attachment.Text, "write")
}

func TestSlackNotifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewSlack(server.URL, WithSlackClient(server.Client()))
	err := s.Notify(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestColorForUrgency(t *testing.T) {
	assert.Equal(t, "danger", colorForUrgency(request.UrgencyHigh))
	assert.Equal(t, "warning", colorForUrgency(request.UrgencyMedium))
	assert.Equal(t, "good", colorForUrgency(request.UrgencyLow))
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, *request.AccessRequest) error {
	c.calls++
	return c.err
}

func TestMultiNotifiesAllDespiteFailures(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	failing := &countingNotifier{err: errors.New("down")}
	working := &countingNotifier{}

	m := NewMulti(logger, failing, working)
	err := m.Notify(context.Background(), sampleRequest())

	require.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
}

func TestMultiNoFailures(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, b := &countingNotifier{}, &countingNotifier{}
	m := NewMulti(logger, a, b)

	require.NoError(t, m.Notify(context.Background(), sampleRequest()))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
