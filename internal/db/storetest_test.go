package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/star-builder/internal/types"
)

// runStoreSuite exercises the Store contract. Every backend runs it.
func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	newUser := func(t *testing.T) *User {
		u := &User{
			ID:           uuid.New(),
			Name:         "Test User",
			Email:        "User-" + uuid.NewString() + "@Example.com",
			PasswordHash: "hash",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		require.NoError(t, s.CreateUser(ctx, u))
		return u
	}
	newStory := func(resumeID, title string, at time.Time) *types.Story {
		return &types.Story{
			ID:               uuid.NewString(),
			TailoredResumeID: resumeID,
			Title:            title,
			Situation:        "s",
			Task:             "t",
			Action:           "a",
			Result:           "r",
			KeyThemes:        []string{"Leadership"},
			Theme:            "Leadership",
			Tone:             types.ToneHumble,
			ExperienceIDs:    []string{"exp-0"},
			CreatedAt:        at,
			UpdatedAt:        at,
		}
	}

	t.Run("users", func(t *testing.T) {
		u := newUser(t)

		got, err := s.GetUserByEmail(ctx, "  "+u.Email+" ")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, normalizeEmail(u.Email), got.Email)

		dup := *u
		dup.ID = uuid.New()
		dup.Email = u.Email
		assert.True(t, errors.Is(s.CreateUser(ctx, &dup), ErrConflict))

		require.NoError(t, s.UpdatePassword(ctx, u.ID, "new-hash", now.Add(time.Minute)))
		got, err = s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.PasswordHash)

		_, err = s.GetUser(ctx, uuid.New())
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, errors.Is(s.UpdatePassword(ctx, uuid.New(), "x", now), ErrNotFound))
	})

	t.Run("stories", func(t *testing.T) {
		owner := newUser(t)
		other := newUser(t)
		resume := "tr-" + uuid.NewString()

		first := newStory(resume, "first", now)
		second := newStory(resume, "second", now.Add(time.Second))
		elsewhere := newStory("tr-other", "elsewhere", now)
		require.NoError(t, s.CreateStory(ctx, owner.ID, second))
		require.NoError(t, s.CreateStory(ctx, owner.ID, first))
		require.NoError(t, s.CreateStory(ctx, owner.ID, elsewhere))
		assert.True(t, errors.Is(s.CreateStory(ctx, owner.ID, first), ErrConflict))

		stored, err := s.GetStory(ctx, owner.ID, first.ID)
		require.NoError(t, err)
		if diff := cmp.Diff(first, stored, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("stored story mismatch (-want +got):\n%s", diff)
		}

		list, err := s.ListStories(ctx, owner.ID, resume)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.ElementsMatch(t, []string{"first", "second"}, []string{list[0].Title, list[1].Title})
		assert.Equal(t, types.ToneHumble, list[0].Tone)
		assert.Equal(t, []string{"exp-0"}, list[0].ExperienceIDs)

		empty, err := s.ListStories(ctx, other.ID, resume)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		_, err = s.GetStory(ctx, other.ID, first.ID)
		assert.True(t, errors.Is(err, ErrNotFound), "stories are scoped to their owner")

		later := now.Add(time.Hour)
		updated, err := s.UpdateStory(ctx, owner.ID, first.ID, types.StoryFields{
			Title: "renamed", Situation: "s2", Task: "t2", Action: "a2", Result: "r2",
		}, later)
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.Equal(t, "r2", updated.Result)
		assert.Equal(t, "Leadership", updated.Theme)
		assert.WithinDuration(t, later, updated.UpdatedAt, time.Millisecond)

		_, err = s.UpdateStory(ctx, other.ID, first.ID, types.StoryFields{Title: "x"}, later)
		assert.True(t, errors.Is(err, ErrNotFound))

		assert.True(t, errors.Is(s.DeleteStory(ctx, other.ID, first.ID), ErrNotFound))
		require.NoError(t, s.DeleteStory(ctx, owner.ID, first.ID))
		assert.True(t, errors.Is(s.DeleteStory(ctx, owner.ID, first.ID), ErrNotFound))

		list, err = s.ListStories(ctx, owner.ID, resume)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, second.ID, list[0].ID)
	})

	require.NoError(t, s.Ping(ctx))
}
