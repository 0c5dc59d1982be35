package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound is returned when no code exists for the key or it expired.
var ErrCodeNotFound = errors.New("reset code not found or expired")

// ResetCodeStore keeps short-lived password-reset codes keyed by email. It is
// an explicit store with a TTL rather than an in-process map so multiple
// instances share state and tests can substitute their own implementation.
type ResetCodeStore interface {
	Set(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) ResetCodeStore {
	return &redisStore{client: client}
}

func resetKey(email string) string {
	return "pwreset:" + email
}

func (s *redisStore) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, resetKey(email), code, ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, resetKey(email)).Result()
	if err == redis.Nil {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

func (s *redisStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, resetKey(email)).Err()
}
