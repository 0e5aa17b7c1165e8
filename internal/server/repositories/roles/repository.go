// Package roles persists roles and their association with users.
package roles

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// FindByName returns common.ErrorNotFound when no role has that name.
	FindByName(ctx context.Context, name string) (*models.Role, error)

	// AttachToUser links a role to a user; attaching twice is a no-op.
	AttachToUser(ctx context.Context, userID, roleID int64) error

	// FindByUserID lists a user's roles ordered by id.
	FindByUserID(ctx context.Context, userID int64) ([]models.Role, error)
}
