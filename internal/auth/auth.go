// Package auth checks credentials against the user store and keeps session
// tokens in Redis so they expire on their own and survive server restarts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/JoeWakeling/newswire/internal/store"
)

var (
	ErrBadCredentials = errors.New("username or password incorrect")
	ErrNoSession      = errors.New("no active session")
)

// SessionTTL bounds how long an idle session stays valid.
const SessionTTL = 24 * time.Hour

const sessionKeyPrefix = "session:"

// Sessions authenticates users and manages their session tokens.
type Sessions struct {
	rdb   *redis.Client
	store store.Store
}

// NewSessions connects to Redis at the given address.
func NewSessions(redisAddr string, st store.Store) (*Sessions, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Sessions{rdb: rdb, store: st}, nil
}

func (s *Sessions) Close() error {
	return s.rdb.Close()
}

// Login verifies the credentials and, on success, issues a fresh session
// token bound to the user.
func (s *Sessions) Login(ctx context.Context, username, password string) (string, *store.User, error) {
	user, err := s.store.GetUser(ctx, username)
	if errors.Is(err, store.ErrNoUser) {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", nil, ErrBadCredentials
	}

	token := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKeyPrefix+token, username, SessionTTL).Err(); err != nil {
		return "", nil, fmt.Errorf("storing session: %w", err)
	}
	return token, user, nil
}

// User resolves a session token to its user, refreshing the TTL.
func (s *Sessions) User(ctx context.Context, token string) (*store.User, error) {
	username, err := s.rdb.GetEx(ctx, sessionKeyPrefix+token, SessionTTL).Result()
	if err == redis.Nil {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, username)
}

// Logout invalidates the token. Returns ErrNoSession if it was not active.
func (s *Sessions) Logout(ctx context.Context, token string) error {
	n, err := s.rdb.Del(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoSession
	}
	return nil
}

// HashPassword produces the bcrypt hash stored alongside a new user.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}
