package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix = "academic:session:"
	sessionTTL    = 24 * time.Hour
)

// SessionStore maps opaque bearer tokens to user IDs in Redis.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Create issues a fresh token for a user. Tokens expire after 24 hours.
func (s *SessionStore) Create(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)
	if err := s.client.Set(ctx, sessionPrefix+token, strconv.FormatInt(userID, 10), sessionTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user ID behind a token, or false for unknown tokens.
func (s *SessionStore) Resolve(ctx context.Context, token string) (int64, bool) {
	if s == nil || s.client == nil || token == "" {
		return 0, false
	}
	raw, err := s.client.Get(ctx, sessionPrefix+token).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *SessionStore) Revoke(ctx context.Context, token string) {
	if s == nil || s.client == nil || token == "" {
		return
	}
	s.client.Del(ctx, sessionPrefix+token)
}
