package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	sessionKeyPrefix = "session:"
	// SessionTTL is the sliding window refreshed on every authenticated
	// request. Issuance lives in the identity service, not here.
	SessionTTL = 30 * 24 * time.Hour
)

// SessionServiceInterface resolves pre-issued opaque session tokens to user
// identities.
type SessionServiceInterface interface {
	UserID(ctx context.Context, token string) (uuid.UUID, error)
}

type SessionService struct {
	redis RedisClient
}

func NewSessionService(redis RedisClient) *SessionService {
	return &SessionService{redis: redis}
}

// UserID looks up the user bound to the given session token. Tokens are
// stored hashed so a Redis dump never leaks usable credentials.
func (s *SessionService) UserID(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrSessionNotFound
	}

	ctx, cancel := storageCtx(ctx)
	defer cancel()

	key := sessionKeyPrefix + hashSessionToken(token)
	value, err := s.redis.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("looking up session: %w", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing session user id: %w", err)
	}

	// Sliding expiry; a failed refresh only shortens the session.
	_ = s.redis.Expire(ctx, key, SessionTTL)

	return userID, nil
}

func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
