// Package redis implements the challenge store on Redis, which gives the
// captcha/OTP TTL semantics natively instead of lazy expiry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkapoor/esshub/internal/store"
)

const keyPrefix = "esshub"

// ChallengeStore is a Redis-backed implementation of store.ChallengeStore.
type ChallengeStore struct {
	client *redis.Client
}

// NewChallengeStore creates a challenge store on an existing Redis client.
func NewChallengeStore(client *redis.Client) *ChallengeStore {
	return &ChallengeStore{client: client}
}

func redisKey(kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, key)
}

// Put stores the challenge under (kind, key) with the given TTL, replacing
// any existing entry.
func (s *ChallengeStore) Put(ctx context.Context, kind string, ch *store.Challenge, ttl time.Duration) error {
	cp := *ch
	if cp.IssuedAt.IsZero() {
		cp.IssuedAt = time.Now()
	}
	if cp.ExpiresAt.IsZero() {
		cp.ExpiresAt = cp.IssuedAt.Add(ttl)
	}

	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	if err := s.client.Set(ctx, redisKey(kind, ch.Key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

// Take consumes the challenge under (kind, key) using GETDEL so two
// concurrent submissions cannot both succeed.
func (s *ChallengeStore) Take(ctx context.Context, kind, key string) (*store.Challenge, error) {
	data, err := s.client.GetDel(ctx, redisKey(kind, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to take challenge: %w", err)
	}

	return decode(data)
}

// Peek reads the challenge under (kind, key) without consuming it.
func (s *ChallengeStore) Peek(ctx context.Context, kind, key string) (*store.Challenge, error) {
	data, err := s.client.Get(ctx, redisKey(kind, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to peek challenge: %w", err)
	}

	return decode(data)
}

func decode(data []byte) (*store.Challenge, error) {
	var ch store.Challenge
	if err := json.Unmarshal(data, &ch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}
	return &ch, nil
}
