// Package detect defines the detector collaborator contract and ships a
// deterministic keyword implementation. The production detector may be an
// LLM behind the same interface; the workflow's correctness never depends on
// detection accuracy, only on what happens once a candidate is produced.
package detect

import (
	"context"

	"accessgate/internal/mail"
	"accessgate/internal/request"
)

// Detector turns one email into zero or one access-request candidate.
// A nil candidate with nil error means the email is not an access request.
// Implementations must be deterministic for identical input.
type Detector interface {
	Detect(ctx context.Context, msg mail.Message) (*request.Candidate, error)
}

// Func adapts a function to the Detector interface.
type Func func(ctx context.Context, msg mail.Message) (*request.Candidate, error)

func (f Func) Detect(ctx context.Context, msg mail.Message) (*request.Candidate, error) {
	return f(ctx, msg)
}
