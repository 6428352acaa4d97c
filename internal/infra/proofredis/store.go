package proofredis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gitproof/internal/domain"
	"gitproof/internal/usecase"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gitproof:proof:"

// Store keeps proofs in Redis with the TTL enforced natively by the
// server, so expiry needs no lazy eviction on this backend.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, password string, db int, ttl time.Duration) (*Store, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: client, ttl: ttl}, nil
}

func (s *Store) Put(ctx context.Context, hash string, result domain.VerificationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+hash, payload, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, hash string) (*domain.VerificationResult, bool, error) {
	payload, err := s.client.Get(ctx, keyPrefix+hash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result domain.VerificationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

var _ usecase.ProofStore = (*Store)(nil)
