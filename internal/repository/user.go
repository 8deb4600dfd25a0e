package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/serigen/serigen/internal/model"
)

// CreateUser inserts a new user and returns it with its assigned ID.
func (s *Store) CreateUser(ctx context.Context, name, passwordHash string, isAdmin bool) (*model.User, error) {
	query := s.db.Rebind(`
		INSERT INTO users (name, password, is_admin)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	var id int64
	err := s.db.QueryRowxContext(ctx, query, name, passwordHash, isAdmin).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrNameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &model.User{ID: id, Name: name, PasswordHash: passwordHash, IsAdmin: isAdmin}, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := s.db.Rebind(`
		SELECT id, name, password, is_admin
		FROM users
		WHERE id = ?
	`)

	var user model.User
	if err := s.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetUserByName retrieves a user by their unique name.
func (s *Store) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	query := s.db.Rebind(`
		SELECT id, name, password, is_admin
		FROM users
		WHERE name = ?
	`)

	var user model.User
	if err := s.db.GetContext(ctx, &user, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}

	return &user, nil
}

// UpdateUserPassword replaces the stored password hash for a user.
func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	query := s.db.Rebind(`UPDATE users SET password = ? WHERE id = ?`)

	res, err := s.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListUsers returns all users ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT id, name, password, is_admin
		FROM users
		ORDER BY id
	`

	var users []model.User
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// DeleteUser removes a user. Deleting the last remaining admin is rejected
// with ErrLastAdmin and no row is touched; the check and the delete run in
// one transaction so a concurrent delete cannot slip past the invariant.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var isAdmin bool
	err = tx.GetContext(ctx, &isAdmin, tx.Rebind(`SELECT is_admin FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to read user: %w", err)
	}

	if isAdmin {
		var otherAdmins int
		query := tx.Rebind(`SELECT COUNT(*) FROM users WHERE is_admin AND id <> ?`)
		if err := tx.GetContext(ctx, &otherAdmins, query, id); err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}
		if otherAdmins == 0 {
			return ErrLastAdmin
		}
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}
