package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/star-builder/internal/config"
	"github.com/jonathan/star-builder/internal/db"
	"github.com/jonathan/star-builder/internal/types"
)

// UserService implements registration, login and password changes.
type UserService struct {
	store     db.UserStore
	passwords *config.PasswordConfig
	now       func() time.Time
}

// NewUserService creates a UserService.
func NewUserService(store db.UserStore, passwords *config.PasswordConfig) *UserService {
	return &UserService{store: store, passwords: passwords, now: time.Now}
}

// Register validates req, hashes the password and creates the account.
func (s *UserService) Register(ctx context.Context, req types.CreateUserRequest) (*db.User, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, config.ErrPasswordTooLong) {
			return nil, &ErrValidation{Field: "password", Message: err.Error()}
		}
		return nil, err
	}

	now := s.now().UTC()
	u := &db.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, &ErrEmailAlreadyExists{Email: req.Email}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Login returns the account matching req. Unknown emails and wrong passwords
// produce the same error.
func (s *UserService) Login(ctx context.Context, req types.LoginRequest) (*db.User, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &ErrInvalidCredentials{}
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !s.passwords.VerifyPassword(req.Password, u.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	return u, nil
}

// UpdatePassword changes the password of userID after checking the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, req types.UpdatePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return validationError(err)
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwords.VerifyPassword(req.CurrentPassword, u.PasswordHash) {
		return &ErrPasswordMismatch{}
	}
	hash, err := s.passwords.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash, s.now().UTC())
}

// Get returns the account for userID.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*db.User, error) {
	return s.store.GetUser(ctx, userID)
}

func publicUser(u *db.User) *types.User {
	return &types.User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}
