// Package model defines domain entities for the application.
package model

// User is an account that can log in and own codes.
// PasswordHash holds an argon2id hash in PHC string format; the plaintext
// never leaves the auth package.
type User struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	PasswordHash string `db:"password"`
	IsAdmin      bool   `db:"is_admin"`
}
