package db

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"gitproof/internal/domain"

	"gorm.io/gorm"
)

var errDBUnavailable = errors.New("db unavailable")

type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Append(ctx context.Context, record domain.VerificationRecord) (domain.VerificationRecord, error) {
	if r.db == nil {
		return domain.VerificationRecord{}, errDBUnavailable
	}
	if record.ID == "" {
		id, err := newUUID()
		if err != nil {
			return domain.VerificationRecord{}, err
		}
		record.ID = id
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.VerifiedAt = record.VerifiedAt.UTC()

	model := recordModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.VerificationRecord{}, err
	}
	return record, nil
}

func (r *VerificationRepository) ListByUsername(ctx context.Context, username string) ([]domain.VerificationRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []VerificationRecordModel
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("verified_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.VerificationRecord, 0, len(models))
	for _, model := range models {
		out = append(out, recordFromModel(model))
	}
	return out, nil
}

func recordModelFromDomain(record domain.VerificationRecord) VerificationRecordModel {
	return VerificationRecordModel{
		ID:            record.ID,
		Username:      record.Username,
		ClaimType:     string(record.ClaimType),
		Threshold:     record.Threshold,
		MetricValue:   record.MetricValue,
		MeetsCriteria: record.MeetsCriteria,
		ProofHash:     record.ProofHash,
		VerifiedAt:    record.VerifiedAt.UTC(),
		CreatedAt:     record.CreatedAt.UTC(),
	}
}

func recordFromModel(model VerificationRecordModel) domain.VerificationRecord {
	return domain.VerificationRecord{
		ID:            model.ID,
		Username:      model.Username,
		ClaimType:     domain.ClaimType(model.ClaimType),
		Threshold:     model.Threshold,
		MetricValue:   model.MetricValue,
		MeetsCriteria: model.MeetsCriteria,
		ProofHash:     model.ProofHash,
		VerifiedAt:    model.VerifiedAt.UTC(),
		CreatedAt:     model.CreatedAt.UTC(),
	}
}

func newUUID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	bytes[6] = (bytes[6] & 0x0f) | 0x40
	bytes[8] = (bytes[8] & 0x3f) | 0x80
	hexStr := hex.EncodeToString(bytes)
	return hexStr[0:8] + "-" + hexStr[8:12] + "-" + hexStr[12:16] + "-" + hexStr[16:20] + "-" + hexStr[20:32], nil
}
