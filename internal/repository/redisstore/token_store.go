package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore implements domain.TokenStore on Redis
type TokenStore struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection
func New(ctx context.Context, addr, pass string, db int) (*TokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisstore.New: %w", err)
	}

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func usedKey(purpose, signature string) string {
	return fmt.Sprintf("token:used:%s:%s", purpose, signature)
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("jwt:revoked:%s", tokenID)
}

// MarkUsed atomically records a consumed link. It reports true only for the
// first caller.
func (s *TokenStore) MarkUsed(ctx context.Context, purpose, signature string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, usedKey(purpose, signature), "used", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark %s token used: %w", purpose, err)
	}
	return ok, nil
}

// Release deletes the consumed marker of a link
func (s *TokenStore) Release(ctx context.Context, purpose, signature string) error {
	if err := s.client.Del(ctx, usedKey(purpose, signature)).Err(); err != nil {
		return fmt.Errorf("release %s token: %w", purpose, err)
	}
	return nil
}

func (s *TokenStore) IsUsed(ctx context.Context, purpose, signature string) (bool, error) {
	n, err := s.client.Exists(ctx, usedKey(purpose, signature)).Result()
	if err != nil {
		return false, fmt.Errorf("check %s token used: %w", purpose, err)
	}
	return n > 0, nil
}

// Revoke denylists an access token id until ttl elapses
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(tokenID), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked access token: %w", err)
	}
	return n > 0, nil
}

// Ping reports whether Redis answers
func (s *TokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *TokenStore) Close() error {
	return s.client.Close()
}
