package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite "modernc.org/sqlite"
)

// Common errors for store operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrNameExists   = errors.New("user name already exists")
	ErrLastAdmin    = errors.New("cannot delete the last admin")
	ErrCodeNotFound = errors.New("code not found")
)

// DuplicateCodeError reports that a code insert lost the optimistic race:
// the computed code string already exists. It carries the rejected
// candidate so the caller can log it or retry the allocation.
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("code %q already exists", e.Code)
}

// SQLite extended result codes for uniqueness violations.
const (
	sqliteConstraintUnique     = 2067
	sqliteConstraintPrimaryKey = 1555
)

// isUniqueViolation reports whether err is a unique-constraint violation
// from either supported driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey
	}

	return false
}
