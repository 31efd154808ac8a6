package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StateKeyPrefix = "oauth:state:"
	StateTTL       = 10 * time.Minute
)

var (
	ErrEmptyToken   = errors.New("empty state parameter")
	ErrInvalidToken = errors.New("invalid or expired state")
)

// StateStore keeps single-use random tokens in Redis. It backs the OAuth
// state parameter and the password reset links.
type StateStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStateStore creates a store for OAuth state tokens.
func NewStateStore(rdb *redis.Client) *StateStore {
	return NewTokenStore(rdb, StateKeyPrefix, StateTTL)
}

// NewTokenStore creates a store with its own key prefix and lifetime.
func NewTokenStore(rdb *redis.Client, prefix string, ttl time.Duration) *StateStore {
	return &StateStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

// GenerateState creates a random token and stores value under it.
func (s *StateStore) GenerateState(ctx context.Context, value string) (string, error) {
	// 32 bytes = 256 bits
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	state := hex.EncodeToString(bytes)

	if err := s.rdb.Set(ctx, s.prefix+state, value, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return state, nil
}

// ValidateState returns the stored value and consumes the token.
func (s *StateStore) ValidateState(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrEmptyToken
	}

	key := s.prefix + state

	// Get and delete atomically using a transaction
	var value string
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("failed to get state: %w", err)
		}
		value = val

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)

	if err != nil {
		return "", err
	}

	return value, nil
}
