// Package confirmation mints and retires single-use confirmation tokens.
package confirmation

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/confirmationtokens"
)

const (
	DefaultLength   = 100
	DefaultValidity = 24 * time.Hour
)

// Issuer creates tokens through a confirmationtokens.Repository. An Issuer
// returned by NewIssuer is a template; bind it to a repository with With.
type Issuer struct {
	repo     confirmationtokens.Repository
	length   int
	validity time.Duration
	now      func() time.Time
}

func NewIssuer(length int, validity time.Duration) *Issuer {
	if length <= 0 {
		length = DefaultLength
	}
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Issuer{length: length, validity: validity, now: time.Now}
}

// With returns a copy of the issuer that works through repo, typically one
// bound to the caller's transaction.
func (i *Issuer) With(repo confirmationtokens.Repository) *Issuer {
	cp := *i
	cp.repo = repo
	return &cp
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

// Issue allocates an id, draws a random token and persists it for user. The
// returned record is re-read from the store so ExpiresAt is the stored value.
func (i *Issuer) Issue(ctx context.Context, user *models.User) (*models.ConfirmationToken, error) {
	if user == nil {
		return nil, common.ErrNoIdentity
	}

	id, err := i.repo.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate confirmation token id: %w", err)
	}

	secret, err := cryptox.RandomString(i.length, cryptox.AlphaNumeric)
	if err != nil {
		return nil, fmt.Errorf("generate confirmation token: %w", err)
	}

	tok := &models.ConfirmationToken{ID: id, UserID: user.ID, Token: secret}
	if err := i.repo.Create(ctx, tok, i.validity); err != nil {
		return nil, err
	}

	return i.repo.FindByID(ctx, id)
}

// Retire expires the token. Retiring an absent or already retired token is
// not an error.
func (i *Issuer) Retire(ctx context.Context, id int64) error {
	_, err := i.repo.Retire(ctx, id, i.now())
	return err
}

// Consume retires the token and reports whether this call was the one that
// did it. Exactly one of several concurrent callers gets true.
func (i *Issuer) Consume(ctx context.Context, id int64) (bool, error) {
	return i.repo.Retire(ctx, id, i.now())
}

// Now is the issuer's clock.
func (i *Issuer) Now() time.Time { return i.now() }
