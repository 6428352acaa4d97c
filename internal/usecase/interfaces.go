package usecase

import (
	"context"
	"time"

	"gitproof/internal/domain"
)

type Clock func() time.Time

// ActivitySource fetches a subject's public activity from the hosting
// platform. Implementations classify failures with the domain error
// sentinels and never retry.
type ActivitySource interface {
	FetchUserEvents(ctx context.Context, username string) ([]domain.ActivityEvent, error)
	CountTotalStars(ctx context.Context, username string) (int, error)
	CountPublicRepos(ctx context.Context, username string) (int, error)
}

// AttestationProvider obtains a signed token vouching that the proof
// was produced inside a confidential environment, and decodes such a
// token's claims segment.
type AttestationProvider interface {
	GetToken(ctx context.Context, proofHash string) (string, error)
	DecodeClaims(token string) (map[string]any, error)
}

// ProofStore holds verification results keyed by proof hash until
// their TTL elapses.
type ProofStore interface {
	Put(ctx context.Context, hash string, result domain.VerificationResult) error
	Get(ctx context.Context, hash string) (*domain.VerificationResult, bool, error)
}

// VerificationAuditRepository appends completed verifications to a
// persistent audit trail.
type VerificationAuditRepository interface {
	Append(ctx context.Context, record domain.VerificationRecord) (domain.VerificationRecord, error)
	ListByUsername(ctx context.Context, username string) ([]domain.VerificationRecord, error)
}

type PolicyEngine interface {
	Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error)
}
