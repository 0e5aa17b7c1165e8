// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account.
type User struct {
	ID           int64
	UserName     string
	Email        string
	PasswordHash string
	Blocked      bool
	Verified     bool
	CreatedAt    time.Time
	Roles        []Role

	// GeneratedPassword carries a freshly generated plaintext password from
	// the reset flow to the mail that delivers it. It is never persisted.
	GeneratedPassword string `json:"-"`
}

// IsBlocked reports whether the account is locked out.
func (u *User) IsBlocked() bool { return u.Blocked }

// IsVerified reports whether the account's email has been confirmed.
func (u *User) IsVerified() bool { return u.Verified }
