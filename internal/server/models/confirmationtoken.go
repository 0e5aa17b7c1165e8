package models

import "time"

// ConfirmationToken is a single-use secret mailed to a user to prove
// control of their address. Once retired its ExpiresAt is in the past.
type ConfirmationToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token can no longer be used at now.
func (t *ConfirmationToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
