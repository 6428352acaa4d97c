package db

import "time"

type VerificationRecordModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Username      string    `gorm:"index;not null"`
	ClaimType     string    `gorm:"not null"`
	Threshold     int       `gorm:"not null"`
	MetricValue   int       `gorm:"not null"`
	MeetsCriteria bool      `gorm:"not null"`
	ProofHash     string    `gorm:"index"`
	VerifiedAt    time.Time `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (VerificationRecordModel) TableName() string {
	return "verification_records"
}
