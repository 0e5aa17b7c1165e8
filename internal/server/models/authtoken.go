package models

import "time"

// AuthToken is a persisted bearer token (access or refresh). Its presence
// in storage is what makes a signature-valid token non-revoked.
type AuthToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
