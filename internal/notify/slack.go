package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"accessgate/internal/request"
)

// Slack posts pending requests to an incoming-webhook URL.
type Slack struct {
	webhookURL string
	channel    string
	username   string
	client     *http.Client
}

// SlackOption configures a Slack notifier.
type SlackOption func(*Slack)

// WithSlackChannel overrides the webhook's default channel.
func WithSlackChannel(channel string) SlackOption {
	return func(s *Slack) { s.channel = channel }
}

// WithSlackClient swaps the HTTP client, mainly for tests.
func WithSlackClient(client *http.Client) SlackOption {
	return func(s *Slack) { s.client = client }
}

func NewSlack(webhookURL string, opts ...SlackOption) *Slack {
	s := &Slack{
		webhookURL: webhookURL,
		username:   "accessgate",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Slack) Notify(ctx context.Context, req *request.AccessRequest) error {
	payload := slackPayload{
		Username: s.username,
		Channel:  s.channel,
		Attachments: []slackAttachment{
			{
				Color: colorForUrgency(req.Urgency),
				Title: "Access request pending approval",
				Text:  fmt.Sprintf("%s requests %s access to %s", req.Requester, req.AccessType, req.Resource),
				Fields: []slackField{
					{Title: "Request ID", Value: req.ID, Short: true},
					{Title: "Urgency", Value: string(req.Urgency), Short: true},
					{Title: "Justification", Value: req.Justification},
				},
				Footer:    req.Source.Subject,
				Timestamp: req.CreatedAt.Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}

func colorForUrgency(urgency request.Urgency) string {
	switch urgency {
	case request.UrgencyHigh:
		return "danger"
	case request.UrgencyMedium:
		return "warning"
	default:
		return "good"
	}
}

type slackPayload struct {
	Username    string            `json:"username,omitempty"`
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color     string       `json:"color,omitempty"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []slackField `json:"fields,omitempty"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short,omitempty"`
}
