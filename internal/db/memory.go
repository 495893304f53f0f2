package db

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/star-builder/internal/types"
)

type ownedStory struct {
	owner uuid.UUID
	story types.Story
}

// Memory is an in-process Store for development and tests. Data is lost on exit.
type Memory struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]User
	emails  map[string]uuid.UUID
	stories map[string]ownedStory
	seq     []string
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[uuid.UUID]User),
		emails:  make(map[string]uuid.UUID),
		stories: make(map[string]ownedStory),
	}
}

// Ping implements Store.
func (m *Memory) Ping(context.Context) error { return nil }

// Close implements Store.
func (m *Memory) Close(context.Context) error { return nil }

func cloneStory(s types.Story) types.Story {
	s.KeyThemes = nonNil(slices.Clone(s.KeyThemes))
	s.TalkingPoints = nonNil(slices.Clone(s.TalkingPoints))
	s.ExperienceIDs = nonNil(slices.Clone(s.ExperienceIDs))
	return s
}

// ListStories implements StoryStore. Insertion order stands in for created_at.
func (m *Memory) ListStories(_ context.Context, userID uuid.UUID, tailoredResumeID string) ([]types.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []types.Story{}
	for _, id := range m.seq {
		rec, ok := m.stories[id]
		if ok && rec.owner == userID && rec.story.TailoredResumeID == tailoredResumeID {
			out = append(out, cloneStory(rec.story))
		}
	}
	return out, nil
}

// CreateStory implements StoryStore.
func (m *Memory) CreateStory(_ context.Context, userID uuid.UUID, s *types.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.stories[s.ID]; exists {
		return fmt.Errorf("story %s: %w", s.ID, ErrConflict)
	}
	m.stories[s.ID] = ownedStory{owner: userID, story: cloneStory(*s)}
	m.seq = append(m.seq, s.ID)
	return nil
}

// GetStory implements StoryStore.
func (m *Memory) GetStory(_ context.Context, userID uuid.UUID, id string) (*types.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.stories[id]
	if !ok || rec.owner != userID {
		return nil, fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	s := cloneStory(rec.story)
	return &s, nil
}

// UpdateStory implements StoryStore.
func (m *Memory) UpdateStory(_ context.Context, userID uuid.UUID, id string, f types.StoryFields, now time.Time) (*types.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.stories[id]
	if !ok || rec.owner != userID {
		return nil, fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	rec.story = rec.story.WithFields(f)
	rec.story.UpdatedAt = now
	m.stories[id] = rec
	s := cloneStory(rec.story)
	return &s, nil
}

// DeleteStory implements StoryStore.
func (m *Memory) DeleteStory(_ context.Context, userID uuid.UUID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.stories[id]
	if !ok || rec.owner != userID {
		return fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	delete(m.stories, id)
	m.seq = slices.DeleteFunc(m.seq, func(s string) bool { return s == id })
	return nil
}

// CreateUser implements UserStore.
func (m *Memory) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = normalizeEmail(u.Email)
	if _, taken := m.emails[u.Email]; taken {
		return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
	}
	if _, taken := m.users[u.ID]; taken {
		return fmt.Errorf("user %s: %w", u.ID, ErrConflict)
	}
	m.users[u.ID] = *u
	m.emails[u.Email] = u.ID
	return nil
}

// GetUser implements UserStore.
func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &u, nil
}

// GetUserByEmail implements UserStore.
func (m *Memory) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[normalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	u := m.users[id]
	return &u, nil
}

// UpdatePassword implements UserStore.
func (m *Memory) UpdatePassword(_ context.Context, id uuid.UUID, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	u.PasswordHash = hash
	u.UpdatedAt = now
	m.users[id] = u
	return nil
}
