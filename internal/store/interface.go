package store

import (
	"context"
	"errors"

	"github.com/JoeWakeling/newswire/internal/model"
)

var (
	ErrNotFound = errors.New("story not found")
	ErrNoUser   = errors.New("user not found")
)

// User is an account that can author stories.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash []byte
}

type Store interface {
	CreateStory(ctx context.Context, story *model.Story) error
	GetStory(ctx context.Context, key int64) (*model.Story, error)
	DeleteStory(ctx context.Context, key int64) error
	QueryStories(ctx context.Context, f model.Filter) ([]model.Story, error)
	CreateUser(ctx context.Context, username, displayName string, passwordHash []byte) (int64, error)
	GetUser(ctx context.Context, username string) (*User, error)
}
