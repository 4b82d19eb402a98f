package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeSessionRedis struct {
	values      map[string]string
	getErr      error
	expiredKeys []string
}

func (f *fakeSessionRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return errors.New("not implemented")
}

func (f *fakeSessionRedis) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeSessionRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.expiredKeys = append(f.expiredKeys, key)
	return nil
}

func (f *fakeSessionRedis) Del(ctx context.Context, keys ...string) error {
	return errors.New("not implemented")
}

func sessionKeyFor(token string) string {
	hash := sha256.Sum256([]byte(token))
	return sessionKeyPrefix + hex.EncodeToString(hash[:])
}

func TestSessionService_UserID_EmptyToken(t *testing.T) {
	service := NewSessionService(&fakeSessionRedis{})

	_, err := service.UserID(context.Background(), "")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionService_UserID_UnknownToken(t *testing.T) {
	service := NewSessionService(&fakeSessionRedis{values: map[string]string{}})

	_, err := service.UserID(context.Background(), "no-such-token")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionService_UserID_ResolvesAndRefreshes(t *testing.T) {
	userID := uuid.New()
	token := "opaque-session-token"
	store := &fakeSessionRedis{values: map[string]string{
		sessionKeyFor(token): userID.String(),
	}}

	service := NewSessionService(store)
	got, err := service.UserID(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != userID {
		t.Fatalf("expected user %s, got %s", userID, got)
	}

	if len(store.expiredKeys) != 1 || store.expiredKeys[0] != sessionKeyFor(token) {
		t.Fatalf("expected sliding expiry refresh, got %v", store.expiredKeys)
	}
}

func TestSessionService_UserID_TokenStoredHashed(t *testing.T) {
	token := "raw-token-value"
	store := &fakeSessionRedis{values: map[string]string{
		sessionKeyFor(token): uuid.New().String(),
	}}

	service := NewSessionService(store)
	if _, err := service.UserID(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for key := range store.values {
		if strings.Contains(key, token) {
			t.Fatal("raw token must not appear in storage keys")
		}
	}
}

func TestSessionService_UserID_CorruptValue(t *testing.T) {
	token := "token"
	store := &fakeSessionRedis{values: map[string]string{
		sessionKeyFor(token): "not-a-uuid",
	}}

	service := NewSessionService(store)
	_, err := service.UserID(context.Background(), token)
	if err == nil {
		t.Fatal("expected error for corrupt session value")
	}
}

func TestSessionService_UserID_RedisErrorWrapped(t *testing.T) {
	redisErr := errors.New("connection refused")
	service := NewSessionService(&fakeSessionRedis{getErr: redisErr})

	_, err := service.UserID(context.Background(), "token")
	if !errors.Is(err, redisErr) {
		t.Fatalf("expected wrapped redis error, got %v", err)
	}
}
