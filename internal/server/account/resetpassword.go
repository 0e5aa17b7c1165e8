package account

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type resetPasswordProcess struct {
	baseProcess
	passwordNotifier
	users     users.Repository
	hasher    password.Hasher
	generator password.Generator
}

func (p *resetPasswordProcess) Check(ctx context.Context, req Request) (Response, error) {
	r, ok := req.(ResetPasswordRequest)
	if !ok {
		return reject(CodeBadRequestType), nil
	}

	u, err := p.users.FindByEmail(ctx, r.Email)
	if errors.Is(err, common.ErrorNotFound) {
		return reject(CodeAccountNotExistResetPasswd), nil
	}
	if err != nil {
		return Response{}, err
	}

	switch {
	case u.IsBlocked():
		return reject(CodeAccountIsBlockedResetPasswd), nil
	case !u.IsVerified():
		return reject(CodeAccountIsNotVerifiedResetPasswd), nil
	}

	return accept(CodePasswordCanBeGenerated), nil
}

// Save replaces the password with a generated one. The plaintext is returned
// in GeneratedPassword for the mail and is not stored anywhere.
func (p *resetPasswordProcess) Save(ctx context.Context, req Request) (*models.User, error) {
	return p.mutatePassword(ctx, req)
}

func (p *resetPasswordProcess) applyMutation(ctx context.Context, req Request) (*models.User, error) {
	return p.Save(ctx, req)
}

func (p *resetPasswordProcess) mutatePassword(ctx context.Context, req Request) (*models.User, error) {
	r, ok := req.(ResetPasswordRequest)
	if !ok {
		return nil, p.badRequest(req)
	}

	u, err := p.users.FindByEmail(ctx, r.Email)
	if err != nil {
		return nil, err
	}

	plain, err := p.generator.Generate()
	if err != nil {
		return nil, err
	}
	hash, err := p.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}
	if err := p.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return nil, err
	}

	u.PasswordHash = hash
	u.GeneratedPassword = plain
	return u, nil
}
