package account

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type changePasswordProcess struct {
	baseProcess
	passwordNotifier
	users  users.Repository
	hasher password.Hasher

	changed *models.User
}

// Check looks the account up by email and requires it to be the one named
// by UserID, so a caller cannot change someone else's password.
func (p *changePasswordProcess) Check(ctx context.Context, req Request) (Response, error) {
	r, ok := req.(ChangePasswordRequest)
	if !ok {
		return reject(CodeBadRequestType), nil
	}

	u, err := p.users.FindByEmail(ctx, r.Email)
	if errors.Is(err, common.ErrorNotFound) {
		return reject(CodeEmailNotExist), nil
	}
	if err != nil {
		return Response{}, err
	}

	switch {
	case u.ID != r.UserID:
		return reject(CodeEmailNotExist), nil
	case u.IsBlocked():
		return reject(CodeAccountIsBlockedChangePasswd), nil
	case !p.hasher.Check(u.PasswordHash, r.ActualPassword):
		return reject(CodeBadActualPassword), nil
	}

	return accept(CodePasswordCanBeChanged), nil
}

func (p *changePasswordProcess) Update(ctx context.Context, req Request) (Response, error) {
	u, err := p.mutatePassword(ctx, req)
	if err != nil {
		return Response{}, err
	}
	p.changed = u
	return accept(CodePasswordChanged), nil
}

func (p *changePasswordProcess) applyMutation(ctx context.Context, req Request) (*models.User, error) {
	if _, err := p.Update(ctx, req); err != nil {
		return nil, err
	}
	return p.changed, nil
}

func (p *changePasswordProcess) mutatePassword(ctx context.Context, req Request) (*models.User, error) {
	r, ok := req.(ChangePasswordRequest)
	if !ok {
		return nil, p.badRequest(req)
	}

	u, err := p.users.FindByID(ctx, r.UserID)
	if err != nil {
		return nil, err
	}

	hash, err := p.hasher.Hash(r.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := p.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return nil, err
	}

	u.PasswordHash = hash
	return u, nil
}
