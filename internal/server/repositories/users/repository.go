// Package users declares and implements persistence of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the identity side of the credential store.
type Repository interface {
	// NextID allocates a fresh user id from the store's sequence. Concurrent
	// callers always receive distinct ids.
	NextID(ctx context.Context) (int64, error)

	// Create inserts user with its already-allocated ID.
	Create(ctx context.Context, user *models.User) error

	// FindByID and FindByEmail return common.ErrorNotFound when absent.
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	IsEmailTaken(ctx context.Context, email string) (bool, error)
	IsUsernameTaken(ctx context.Context, username string) (bool, error)

	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateBlockedVerifiedFlags(ctx context.Context, id int64, blocked, verified bool) error
}
