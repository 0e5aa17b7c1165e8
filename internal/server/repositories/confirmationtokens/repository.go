// Package confirmationtokens persists single-use email confirmation tokens.
package confirmationtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// NextID allocates a token id from the store's sequence.
	NextID(ctx context.Context) (int64, error)

	// Create stores token with ID, UserID and Token set. The store derives
	// ExpiresAt as now+validity and writes it (and CreatedAt) back into token.
	Create(ctx context.Context, token *models.ConfirmationToken, validity time.Duration) error

	// FindByID returns common.ErrorNotFound when absent.
	FindByID(ctx context.Context, id int64) (*models.ConfirmationToken, error)

	// Retire moves the expiry of a still-live token to at. It reports false
	// when the token was already expired or retired, so that of two
	// concurrent callers exactly one observes true.
	Retire(ctx context.Context, id int64, at time.Time) (bool, error)
}
