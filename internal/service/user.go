package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/serigen/serigen/internal/auth"
	"github.com/serigen/serigen/internal/model"
	"github.com/serigen/serigen/internal/repository"
)

// Service errors.
var (
	// ErrInvalidCredentials covers both an unknown name and a wrong
	// password; callers cannot tell the two apart.
	ErrInvalidCredentials   = errors.New("invalid name or password")
	ErrOldPasswordIncorrect = errors.New("old password is incorrect")
	ErrPasswordSameAsOld    = errors.New("new password is the same as the old password")
	ErrPasswordMismatch     = errors.New("new password and retyped password do not match")
	ErrMissingFields        = errors.New("name and password are required")

	// Store invariants surfaced unchanged.
	ErrNameExists   = repository.ErrNameExists
	ErrLastAdmin    = repository.ErrLastAdmin
	ErrUserNotFound = repository.ErrUserNotFound
)

// UserService handles account business logic: credential checks, password
// changes and admin user management.
type UserService struct {
	store *repository.Store
}

// NewUserService creates a UserService over the given store.
func NewUserService(store *repository.Store) *UserService {
	return &UserService{store: store}
}

// Authenticate looks the user up by name and verifies the password.
// A missing user and a wrong password both return ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, name, password string) (*model.User, error) {
	if name == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetByID loads a user by ID. Used by the auth middleware after token
// verification.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// ChangePassword verifies the old password and the retype rules, then
// stores a fresh hash of the new password.
func (s *UserService) ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword, retyped string) error {
	if _, err := s.Authenticate(ctx, user.Name, oldPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrOldPasswordIncorrect
		}
		return err
	}

	if newPassword == "" {
		return ErrMissingFields
	}
	if newPassword == oldPassword {
		return ErrPasswordSameAsOld
	}
	if newPassword != retyped {
		return ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.store.UpdateUserPassword(ctx, user.ID, hash)
}

// Create adds a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, name, password string, isAdmin bool) (*model.User, error) {
	if name == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.store.CreateUser(ctx, name, hash, isAdmin)
}

// Delete removes a user; deleting the last admin surfaces ErrLastAdmin.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteUser(ctx, id)
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsers(ctx)
}
