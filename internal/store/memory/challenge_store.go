package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nkapoor/esshub/internal/store"
)

// ChallengeStore is an in-memory implementation of store.ChallengeStore.
// Expiry is enforced lazily on read, so no background sweeper is needed for
// the small number of live challenges a dev server holds.
type ChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]*store.Challenge

	// now is swapped out by tests.
	now func() time.Time
}

// NewChallengeStore creates a new in-memory challenge store.
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		challenges: make(map[string]*store.Challenge),
		now:        time.Now,
	}
}

func challengeKey(kind, key string) string {
	return kind + ":" + key
}

// Put stores a challenge under (kind, key), replacing any existing one.
func (s *ChallengeStore) Put(ctx context.Context, kind string, ch *store.Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *ch
	if cp.IssuedAt.IsZero() {
		cp.IssuedAt = s.now()
	}
	if cp.ExpiresAt.IsZero() {
		cp.ExpiresAt = cp.IssuedAt.Add(ttl)
	}

	s.challenges[challengeKey(kind, ch.Key)] = &cp
	return nil
}

// Take consumes the challenge under (kind, key). Expired or absent challenges
// return ErrChallengeNotFound.
func (s *ChallengeStore) Take(ctx context.Context, kind, key string) (*store.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := challengeKey(kind, key)
	ch, exists := s.challenges[k]
	if !exists {
		return nil, store.ErrChallengeNotFound
	}

	delete(s.challenges, k)

	if ch.Expired(s.now()) {
		return nil, store.ErrChallengeNotFound
	}

	cp := *ch
	return &cp, nil
}

// Peek reads the challenge under (kind, key) without consuming it.
func (s *ChallengeStore) Peek(ctx context.Context, kind, key string) (*store.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := challengeKey(kind, key)
	ch, exists := s.challenges[k]
	if !exists {
		return nil, store.ErrChallengeNotFound
	}

	if ch.Expired(s.now()) {
		delete(s.challenges, k)
		return nil, store.ErrChallengeNotFound
	}

	cp := *ch
	return &cp, nil
}
