package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/serigen/serigen/internal/model"
)

// LatestCodeByPrefix returns the newest code string in the given daily
// bucket, or ErrCodeNotFound when the bucket is empty. Prefixes are always
// V + digits, so no LIKE escaping is needed.
func (s *Store) LatestCodeByPrefix(ctx context.Context, prefix string) (string, error) {
	query := s.db.Rebind(`
		SELECT code
		FROM codes
		WHERE code LIKE ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)

	var code string
	if err := s.db.GetContext(ctx, &code, query, prefix+"%"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("failed to get latest code: %w", err)
	}

	return code, nil
}

// InsertCode persists a new code row and returns its assigned ID.
// This is the single point where the codes.code unique constraint can
// reject a concurrent allocation; that outcome surfaces as
// *DuplicateCodeError, everything else as a wrapped store error.
func (s *Store) InsertCode(ctx context.Context, code string, userID int64, createdAt time.Time) (int64, error) {
	query := s.db.Rebind(`
		INSERT INTO codes (code, user_id, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	var id int64
	err := s.db.QueryRowxContext(ctx, query, code, userID, createdAt).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &DuplicateCodeError{Code: code}
		}
		return 0, fmt.Errorf("failed to insert code: %w", err)
	}

	return id, nil
}

// GetCodeByID retrieves a code joined with its owning user's name.
func (s *Store) GetCodeByID(ctx context.Context, id int64) (*model.Code, error) {
	query := s.db.Rebind(`
		SELECT codes.id, codes.code, codes.created_at, codes.user_id, users.name AS user_name
		FROM codes
		JOIN users ON codes.user_id = users.id
		WHERE codes.id = ?
	`)

	var code model.Code
	if err := s.db.GetContext(ctx, &code, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get code by ID: %w", err)
	}

	return &code, nil
}

// ListRecentCodes returns the newest codes with their owners, newest first.
func (s *Store) ListRecentCodes(ctx context.Context, limit int) ([]model.Code, error) {
	query := s.db.Rebind(`
		SELECT codes.id, codes.code, codes.created_at, codes.user_id, users.name AS user_name
		FROM codes
		JOIN users ON codes.user_id = users.id
		ORDER BY codes.created_at DESC, codes.id DESC
		LIMIT ?
	`)

	var codes []model.Code
	if err := s.db.SelectContext(ctx, &codes, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent codes: %w", err)
	}

	return codes, nil
}

// DeleteAllCodes clears the codes table. Used by the admin reset.
func (s *Store) DeleteAllCodes(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM codes`); err != nil {
		return fmt.Errorf("failed to delete codes: %w", err)
	}
	return nil
}
