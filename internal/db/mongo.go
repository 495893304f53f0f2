package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jonathan/star-builder/internal/types"
)

const (
	usersCollection   = "users"
	storiesCollection = "star_stories"
)

// Mongo is the MongoDB-backed Store.
type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
}

var _ Store = (*Mongo)(nil)

type storyDoc struct {
	ID               string    `bson:"_id"`
	UserID           string    `bson:"user_id"`
	TailoredResumeID string    `bson:"tailored_resume_id"`
	Title            string    `bson:"title"`
	Situation        string    `bson:"situation"`
	Task             string    `bson:"task"`
	Action           string    `bson:"action"`
	Result           string    `bson:"result"`
	KeyThemes        []string  `bson:"key_themes"`
	TalkingPoints    []string  `bson:"talking_points"`
	Theme            string    `bson:"theme"`
	Tone             string    `bson:"tone"`
	ExperienceIDs    []string  `bson:"experience_ids"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func (d storyDoc) story() types.Story {
	return types.Story{
		ID:               d.ID,
		TailoredResumeID: d.TailoredResumeID,
		Title:            d.Title,
		Situation:        d.Situation,
		Task:             d.Task,
		Action:           d.Action,
		Result:           d.Result,
		KeyThemes:        nonNil(d.KeyThemes),
		TalkingPoints:    nonNil(d.TalkingPoints),
		Theme:            d.Theme,
		Tone:             types.Tone(d.Tone),
		ExperienceIDs:    nonNil(d.ExperienceIDs),
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDoc) user() (*User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", d.ID, err)
	}
	return &User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

// ConnectMongo connects, pings and ensures indexes on the named database.
func ConnectMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	m := &Mongo{client: client, database: client.Database(database)}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.database.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	_, err = m.database.Collection(storiesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "tailored_resume_id", Value: 1},
			{Key: "created_at", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create story indexes: %w", err)
	}
	return nil
}

// Ping implements Store.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close implements Store.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) stories() *mongo.Collection { return m.database.Collection(storiesCollection) }
func (m *Mongo) users() *mongo.Collection   { return m.database.Collection(usersCollection) }

// ListStories implements StoryStore.
func (m *Mongo) ListStories(ctx context.Context, userID uuid.UUID, tailoredResumeID string) ([]types.Story, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.stories().Find(ctx, bson.M{
		"user_id":            userID.String(),
		"tailored_resume_id": tailoredResumeID,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []storyDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode stories: %w", err)
	}
	out := make([]types.Story, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.story())
	}
	return out, nil
}

// CreateStory implements StoryStore.
func (m *Mongo) CreateStory(ctx context.Context, userID uuid.UUID, s *types.Story) error {
	_, err := m.stories().InsertOne(ctx, storyDoc{
		ID:               s.ID,
		UserID:           userID.String(),
		TailoredResumeID: s.TailoredResumeID,
		Title:            s.Title,
		Situation:        s.Situation,
		Task:             s.Task,
		Action:           s.Action,
		Result:           s.Result,
		KeyThemes:        nonNil(s.KeyThemes),
		TalkingPoints:    nonNil(s.TalkingPoints),
		Theme:            s.Theme,
		Tone:             string(s.Tone),
		ExperienceIDs:    nonNil(s.ExperienceIDs),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("story %s: %w", s.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// GetStory implements StoryStore.
func (m *Mongo) GetStory(ctx context.Context, userID uuid.UUID, id string) (*types.Story, error) {
	var d storyDoc
	err := m.stories().FindOne(ctx, bson.M{"_id": id, "user_id": userID.String()}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	s := d.story()
	return &s, nil
}

// UpdateStory implements StoryStore.
func (m *Mongo) UpdateStory(ctx context.Context, userID uuid.UUID, id string, f types.StoryFields, now time.Time) (*types.Story, error) {
	var d storyDoc
	err := m.stories().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID.String()},
		bson.M{"$set": bson.M{
			"title":      f.Title,
			"situation":  f.Situation,
			"task":       f.Task,
			"action":     f.Action,
			"result":     f.Result,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update story: %w", err)
	}
	s := d.story()
	return &s, nil
}

// DeleteStory implements StoryStore.
func (m *Mongo) DeleteStory(ctx context.Context, userID uuid.UUID, id string) error {
	res, err := m.stories().DeleteOne(ctx, bson.M{"_id": id, "user_id": userID.String()})
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateUser implements UserStore.
func (m *Mongo) CreateUser(ctx context.Context, u *User) error {
	u.Email = normalizeEmail(u.Email)
	_, err := m.users().InsertOne(ctx, userDoc{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M, label string) (*User, error) {
	var d userDoc
	err := m.users().FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", label, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return d.user()
}

// GetUser implements UserStore.
func (m *Mongo) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String()}, id.String())
}

// GetUserByEmail implements UserStore.
func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return m.findUser(ctx, bson.M{"email": normalizeEmail(email)}, email)
}

// UpdatePassword implements UserStore.
func (m *Mongo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, now time.Time) error {
	res, err := m.users().UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"password_hash": hash, "updated_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}
