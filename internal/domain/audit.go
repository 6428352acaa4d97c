package domain

import "time"

// VerificationRecord is the audit-trail view of one completed
// verification, persisted when a database is configured.
type VerificationRecord struct {
	ID            string
	Username      string
	ClaimType     ClaimType
	Threshold     int
	MetricValue   int
	MeetsCriteria bool
	ProofHash     string
	VerifiedAt    time.Time
	CreatedAt     time.Time
}
