//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"gitproof/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN_TEST"))
	if dsn == "" {
		t.Skip("POSTGRES_DSN_TEST not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&VerificationRecordModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := gdb.Exec("TRUNCATE verification_records").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return gdb
}

func TestVerificationRepository_AppendList(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewVerificationRepository(gdb)

	verifiedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := domain.VerificationRecord{
		Username:      "octocat",
		ClaimType:     domain.ClaimYearlyCommits,
		Threshold:     365,
		MetricValue:   412,
		MeetsCriteria: true,
		ProofHash:     strings.Repeat("ab", 32),
		VerifiedAt:    verifiedAt,
	}
	appended, err := repo.Append(context.Background(), record)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if appended.ID == "" {
		t.Fatal("expected generated id")
	}
	if appended.CreatedAt.IsZero() {
		t.Fatal("expected created_at populated")
	}

	later := record
	later.VerifiedAt = verifiedAt.Add(time.Hour)
	later.MetricValue = 420
	if _, err := repo.Append(context.Background(), later); err != nil {
		t.Fatalf("append second: %v", err)
	}

	list, err := repo.ListByUsername(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if !list[0].VerifiedAt.After(list[1].VerifiedAt) {
		t.Fatal("expected newest-first ordering")
	}
	if list[0].MetricValue != 420 {
		t.Fatalf("unexpected first record: %+v", list[0])
	}
}

func TestVerificationRepository_ListEmpty(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewVerificationRepository(gdb)

	list, err := repo.ListByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no records, got %d", len(list))
	}
}
