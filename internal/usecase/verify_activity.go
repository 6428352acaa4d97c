package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gitproof/internal/domain"
)

type VerifyActivityRequest struct {
	Username  string
	ClaimType domain.ClaimType
	// Threshold of nil means the claim type's default.
	Threshold *int
}

// VerifyActivity composes the verification flow: validate, gate on
// policy, fetch the event window, evaluate the claim, derive the proof
// hash, attempt attestation, and persist the proof. Attestation
// failures degrade the result; they never fail the verification.
type VerifyActivity struct {
	Source   ActivitySource
	Engine   *Engine
	Attestor AttestationProvider
	Proofs   ProofStore
	Audit    VerificationAuditRepository
	Policy   PolicyEngine
	Clock    Clock
}

func (uc *VerifyActivity) Execute(ctx context.Context, req VerifyActivityRequest) (*domain.VerificationResult, error) {
	if err := ValidateUsername(req.Username); err != nil {
		return nil, err
	}
	if !req.ClaimType.Valid() {
		return nil, fmt.Errorf("%w: unknown verification type %q", domain.ErrValidation, req.ClaimType)
	}
	threshold := req.ClaimType.DefaultThreshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}

	if uc.Policy != nil {
		eval, err := uc.Policy.Evaluate(ctx, domain.PolicyInput{
			Subject:   req.Username,
			ClaimType: req.ClaimType,
			Threshold: threshold,
		})
		if err != nil {
			return nil, err
		}
		if !eval.Result.Allow {
			return nil, fmt.Errorf("%w: %s", domain.ErrValidation, denialMessage(eval.Result.Deny))
		}
	}

	events, err := uc.Source.FetchUserEvents(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	met, metricValue, err := uc.Engine.Evaluate(ctx, events, req.ClaimType, threshold)
	if err != nil {
		return nil, err
	}

	verifiedAt := uc.now()
	result := domain.VerificationResult{
		Username:      req.Username,
		ClaimType:     req.ClaimType,
		Threshold:     threshold,
		MeetsCriteria: met,
		VerifiedAt:    verifiedAt,
	}

	if met {
		result.ProofHash = ProofHash(req.Username, req.ClaimType, true, verifiedAt)
		result.Attestation = uc.attest(ctx, result.ProofHash)
		if err := uc.Proofs.Put(ctx, result.ProofHash, result); err != nil {
			return nil, err
		}
	}

	if uc.Audit != nil {
		if _, err := uc.Audit.Append(ctx, domain.VerificationRecord{
			Username:      result.Username,
			ClaimType:     result.ClaimType,
			Threshold:     result.Threshold,
			MetricValue:   metricValue,
			MeetsCriteria: result.MeetsCriteria,
			ProofHash:     result.ProofHash,
			VerifiedAt:    result.VerifiedAt,
		}); err != nil {
			log.Printf("audit append failed for %s: %v", result.Username, err)
		}
	}

	return &result, nil
}

// attest degrades any failure to a tagged outcome: not_configured when
// no endpoint is set, unavailable for sidecar or token errors.
func (uc *VerifyActivity) attest(ctx context.Context, proofHash string) *domain.Attestation {
	if uc.Attestor == nil {
		return &domain.Attestation{Status: domain.AttestationNotConfigured}
	}
	token, err := uc.Attestor.GetToken(ctx, proofHash)
	if err != nil {
		if errors.Is(err, domain.ErrAttestationNotConfigured) {
			return &domain.Attestation{Status: domain.AttestationNotConfigured}
		}
		log.Printf("attestation failed: %v", err)
		return &domain.Attestation{Status: domain.AttestationUnavailable}
	}
	attestation := &domain.Attestation{Status: domain.AttestationIssued, Token: token}
	claims, err := uc.Attestor.DecodeClaims(token)
	if err != nil {
		log.Printf("attestation claims decode failed: %v", err)
		return attestation
	}
	attestation.Claims = claims
	return attestation
}

func (uc *VerifyActivity) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock().UTC()
	}
	return time.Now().UTC()
}

// ProofHash derives the external identifier for a successful
// verification: a hex SHA-256 over subject, the JSON form of the claim
// type, the outcome, and the verification second.
func ProofHash(username string, claim domain.ClaimType, met bool, verifiedAt time.Time) string {
	claimJSON, _ := json.Marshal(claim)
	canonical := fmt.Sprintf("%s:%s:%t:%d", username, claimJSON, met, verifiedAt.Unix())
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func denialMessage(denials []domain.PolicyDenial) string {
	if len(denials) == 0 {
		return "request denied by policy"
	}
	messages := make([]string, 0, len(denials))
	for _, denial := range denials {
		messages = append(messages, denial.Message)
	}
	return strings.Join(messages, "; ")
}
