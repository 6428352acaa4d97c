package domain

import "time"

type AttestationStatus string

const (
	AttestationIssued        AttestationStatus = "token"
	AttestationNotConfigured AttestationStatus = "not_configured"
	AttestationUnavailable   AttestationStatus = "unavailable"
)

// Attestation is the tagged outcome of the sidecar call. Token and
// Claims are populated only when Status is AttestationIssued.
type Attestation struct {
	Status AttestationStatus `json:"status"`
	Token  string            `json:"token,omitempty"`
	Claims map[string]any    `json:"claims,omitempty"`
}

// VerificationResult is immutable once constructed. Attestation and
// ProofHash are set iff MeetsCriteria is true.
type VerificationResult struct {
	Username      string       `json:"username"`
	ClaimType     ClaimType    `json:"verification_type"`
	Threshold     int          `json:"threshold"`
	MeetsCriteria bool         `json:"meets_criteria"`
	Attestation   *Attestation `json:"attestation,omitempty"`
	VerifiedAt    time.Time    `json:"verified_at"`
	ProofHash     string       `json:"proof_hash,omitempty"`
}
