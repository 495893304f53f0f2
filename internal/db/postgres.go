package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/star-builder/internal/types"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// DB is the Postgres-backed Store.
type DB struct {
	pool *pgxpool.Pool
}

var _ Store = (*DB)(nil)

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// EnsureSchema creates the tables if they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping implements Store.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close implements Store.
func (db *DB) Close(context.Context) error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

const storyColumns = `id, tailored_resume_id, title, situation, task, action, result,
	key_themes, talking_points, theme, tone, experience_ids, created_at, updated_at`

func scanStory(row pgx.Row) (*types.Story, error) {
	var s types.Story
	var tone string
	err := row.Scan(&s.ID, &s.TailoredResumeID, &s.Title, &s.Situation, &s.Task, &s.Action, &s.Result,
		&s.KeyThemes, &s.TalkingPoints, &s.Theme, &tone, &s.ExperienceIDs, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Tone = types.Tone(tone)
	return &s, nil
}

// ListStories implements StoryStore.
func (db *DB) ListStories(ctx context.Context, userID uuid.UUID, tailoredResumeID string) ([]types.Story, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+storyColumns+` FROM star_stories
		 WHERE user_id = $1 AND tailored_resume_id = $2
		 ORDER BY created_at, id`,
		userID, tailoredResumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	out := []types.Story{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return out, nil
}

// CreateStory implements StoryStore.
func (db *DB) CreateStory(ctx context.Context, userID uuid.UUID, s *types.Story) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO star_stories (`+storyColumns+`, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		s.ID, s.TailoredResumeID, s.Title, s.Situation, s.Task, s.Action, s.Result,
		nonNil(s.KeyThemes), nonNil(s.TalkingPoints), s.Theme, string(s.Tone), nonNil(s.ExperienceIDs),
		s.CreatedAt, s.UpdatedAt, userID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("story %s: %w", s.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// GetStory implements StoryStore.
func (db *DB) GetStory(ctx context.Context, userID uuid.UUID, id string) (*types.Story, error) {
	s, err := scanStory(db.pool.QueryRow(ctx,
		`SELECT `+storyColumns+` FROM star_stories WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return s, nil
}

// UpdateStory implements StoryStore.
func (db *DB) UpdateStory(ctx context.Context, userID uuid.UUID, id string, f types.StoryFields, now time.Time) (*types.Story, error) {
	s, err := scanStory(db.pool.QueryRow(ctx,
		`UPDATE star_stories
		 SET title = $3, situation = $4, task = $5, action = $6, result = $7, updated_at = $8
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+storyColumns,
		id, userID, f.Title, f.Situation, f.Task, f.Action, f.Result, now,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update story: %w", err)
	}
	return s, nil
}

// DeleteStory implements StoryStore.
func (db *DB) DeleteStory(ctx context.Context, userID uuid.UUID, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM star_stories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	return nil
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser implements UserStore.
func (db *DB) CreateUser(ctx context.Context, u *User) error {
	u.Email = normalizeEmail(u.Email)
	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser implements UserStore.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail implements UserStore.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// UpdatePassword implements UserStore.
func (db *DB) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, now time.Time) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, now)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}
