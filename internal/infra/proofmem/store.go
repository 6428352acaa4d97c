package proofmem

import (
	"context"
	"sync"
	"time"

	"gitproof/internal/domain"
	"gitproof/internal/usecase"
)

// Store holds proofs in a mutex-guarded map with a fixed TTL. Expired
// entries are evicted lazily: a Put sweeps the whole map, a Get that
// observes an expired entry removes just that entry. There is no
// background sweeper.
type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]storedProof
}

type storedProof struct {
	result    domain.VerificationResult
	createdAt time.Time
	expiresAt time.Time
}

func New(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]storedProof),
	}
}

func (s *Store) Put(_ context.Context, hash string, result domain.VerificationResult) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[hash] = storedProof{
		result:    result,
		createdAt: now,
		expiresAt: now.Add(s.ttl),
	}
	for key, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *Store) Get(_ context.Context, hash string) (*domain.VerificationResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[hash]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.After(s.now()) {
		delete(s.entries, hash)
		return nil, false, nil
	}
	result := entry.result
	return &result, true, nil
}

// Stats reports live and expired entry counts without evicting; it is
// served on the health endpoint.
func (s *Store) Stats() (valid, expired int) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if entry.expiresAt.After(now) {
			valid++
		} else {
			expired++
		}
	}
	return valid, expired
}

var _ usecase.ProofStore = (*Store)(nil)
