// Package session provides session storage backends for refresh tokens.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"folio/api/internal/content"
	"folio/api/internal/store"
)

// TokenData is the payload stored per refresh token hash.
type TokenData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisStore keeps refresh sessions in Redis with TTL-based expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
	users  UserLookup
}

// UserLookup resolves the session payload back to a full account.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (store.User, error)
}

func NewRedisStore(redisURL string, users UserLookup) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, users), nil
}

func NewRedisStoreWithClient(client *redis.Client, users UserLookup) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "folio:refresh:",
		users:  users,
	}
}

func (s *RedisStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

// SaveRefreshSession stores a refresh token keyed by its hash. The TTL
// mirrors the session expiry so revocation needs no sweeper.
func (s *RedisStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	data := TokenData{
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	if err := s.client.Set(ctx, s.key(tokenHash), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// LookupRefreshSession resolves a refresh token hash to its account.
func (s *RedisStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	jsonData, err := s.client.Get(ctx, s.key(tokenHash)).Result()
	if err == redis.Nil {
		return store.User{}, content.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	var data TokenData
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return store.User{}, fmt.Errorf("unmarshal token data: %w", err)
	}

	// A deleted account invalidates the session; any other lookup failure is
	// surfaced rather than degraded into a role-less user.
	if s.users != nil {
		user, err := s.users.GetUserByID(ctx, data.UserID)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				return store.User{}, content.ErrNotFound
			}
			return store.User{}, fmt.Errorf("resolve session user: %w", err)
		}
		return user, nil
	}
	return store.User{
		ID:    data.UserID,
		Email: data.Email,
		Name:  data.Name,
		Role:  data.Role,
	}, nil
}

func (s *RedisStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
