// Package db persists users and STAR stories. Postgres, MongoDB and an
// in-process map implement the same Store interface.
package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/star-builder/internal/types"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique key is already taken.
var ErrConflict = errors.New("already exists")

// User is an account that owns stories.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StoryStore holds stories scoped to their owner.
type StoryStore interface {
	// ListStories returns the owner's stories for one tailored resume, oldest first.
	ListStories(ctx context.Context, userID uuid.UUID, tailoredResumeID string) ([]types.Story, error)
	CreateStory(ctx context.Context, userID uuid.UUID, story *types.Story) error
	GetStory(ctx context.Context, userID uuid.UUID, id string) (*types.Story, error)
	// UpdateStory replaces the editable fields and bumps UpdatedAt.
	UpdateStory(ctx context.Context, userID uuid.UUID, id string, fields types.StoryFields, now time.Time) (*types.Story, error)
	DeleteStory(ctx context.Context, userID uuid.UUID, id string) error
}

// UserStore holds accounts.
type UserStore interface {
	// CreateUser inserts u. Emails are compared case-insensitively.
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, now time.Time) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	StoryStore
	UserStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the store named by rawURL's scheme:
// postgres:// or postgresql://, mongodb:// or mongodb+srv://, and memory://.
// An empty URL opens an in-memory store.
func Open(ctx context.Context, rawURL string) (Store, error) {
	if rawURL == "" {
		return NewMemory(), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		pg, err := Connect(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.pool.Close()
			return nil, err
		}
		return pg, nil
	case "mongodb", "mongodb+srv":
		return ConnectMongo(ctx, rawURL, mongoDatabase(u))
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

func mongoDatabase(u *url.URL) string {
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return "star_builder"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
