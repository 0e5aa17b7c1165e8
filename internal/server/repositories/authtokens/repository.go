// Package authtokens declares the repository contract for persisted bearer
// tokens. Access and refresh tokens share one shape and differ only in table.
package authtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Table names one of the two bearer-token tables.
type Table string

const (
	AccessTokens  Table = "access_tokens"
	RefreshTokens Table = "refresh_tokens"
)

// Repository defines operations for storing, retrieving, and revoking bearer tokens.
type Repository interface {
	// Create stores token for userID expiring at expiresAt and returns its id.
	Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (int64, error)

	// Find looks up a token by its string. Returns common.ErrorNotFound when
	// absent (never issued, rotated or revoked).
	Find(ctx context.Context, token string) (*models.AuthToken, error)

	// Delete removes a token. Deleting a non-existent token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every token of userID, returning how many were removed.
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}
