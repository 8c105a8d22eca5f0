package detect

import (
	"context"
	"strings"

	"accessgate/internal/mail"
	"accessgate/internal/request"
)

// KeywordDetector is a heuristic detector: an email is a candidate when it
// talks about access, permissions, or credentials. It exists so the system
// runs end to end without an LLM and so tests have a deterministic adapter.
type KeywordDetector struct{}

func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{}
}

var requestMarkers = []string{
	"access",
	"permission",
	"credential",
	"grant me",
	"account for",
}

var urgentMarkers = []string{"urgent", "asap", "critical", "immediately", "blocking"}

var relaxedMarkers = []string{"no rush", "whenever", "when you get a chance"}

// subjectPrefix is stripped from subjects like "Access Request: Production
// Database" to recover the bare resource name.
const subjectPrefix = "access request:"

const justificationLimit = 280

func (d *KeywordDetector) Detect(_ context.Context, msg mail.Message) (*request.Candidate, error) {
	text := strings.ToLower(msg.Subject + "\n" + msg.Body)

	if !containsAny(text, requestMarkers) {
		return nil, nil
	}

	cand := &request.Candidate{
		Requester:     msg.From,
		Resource:      resourceFromSubject(msg.Subject),
		AccessType:    accessTypeFrom(text),
		Justification: justificationFrom(msg.Body),
		Urgency:       urgencyFrom(text),
		Source:        request.SourceFromMessage(msg),
	}
	return cand, nil
}

func resourceFromSubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	if rest, ok := cutPrefixFold(trimmed, subjectPrefix); ok {
		if rest = strings.TrimSpace(rest); rest != "" {
			return rest
		}
	}
	return trimmed
}

// cutPrefixFold is strings.CutPrefix with ASCII case folding.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) {
		return s, false
	}
	if !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func accessTypeFrom(text string) request.AccessType {
	switch {
	case strings.Contains(text, "admin"):
		return request.AccessAdmin
	case strings.Contains(text, "write"):
		return request.AccessWrite
	case strings.Contains(text, "read"):
		return request.AccessRead
	default:
		return request.AccessOther
	}
}

func urgencyFrom(text string) request.Urgency {
	switch {
	case containsAny(text, urgentMarkers):
		return request.UrgencyHigh
	case containsAny(text, relaxedMarkers):
		return request.UrgencyLow
	default:
		return request.UrgencyMedium
	}
}

func justificationFrom(body string) string {
	just := strings.TrimSpace(body)
	if len(just) > justificationLimit {
		just = just[:justificationLimit]
	}
	return just
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
