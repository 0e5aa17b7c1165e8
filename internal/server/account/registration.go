package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type registrationProcess struct {
	baseProcess
	confirmationSender
	users       users.Repository
	roles       roles.Repository
	hasher      password.Hasher
	defaultRole string
}

func (p *registrationProcess) Check(ctx context.Context, req Request) (Response, error) {
	r, ok := req.(RegistrationRequest)
	if !ok {
		return reject(CodeBadRequestType), nil
	}

	taken, err := p.users.IsEmailTaken(ctx, r.Email)
	if err != nil {
		return Response{}, err
	}
	if taken {
		return reject(CodeEmailIsNotUnique), nil
	}

	taken, err = p.users.IsUsernameTaken(ctx, r.Username)
	if err != nil {
		return Response{}, err
	}
	if taken {
		return reject(CodeLoginIsNotUnique), nil
	}

	return accept(CodeUniqueLoginAndEmail), nil
}

// Save creates an unverified account with the default role attached.
func (p *registrationProcess) Save(ctx context.Context, req Request) (*models.User, error) {
	r, ok := req.(RegistrationRequest)
	if !ok {
		return nil, p.badRequest(req)
	}

	id, err := p.users.NextID(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := p.hasher.Hash(r.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: id, UserName: r.Username, Email: r.Email, PasswordHash: hash}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, err
	}

	role, err := p.roles.FindByName(ctx, p.defaultRole)
	if err != nil {
		return nil, fmt.Errorf("default role %q: %w", p.defaultRole, err)
	}
	if err := p.roles.AttachToUser(ctx, user.ID, role.ID); err != nil {
		return nil, err
	}
	user.Roles = []models.Role{*role}

	return user, nil
}

// uniqueViolation maps a registration that lost the race for its email or
// username to the rejection Check would have returned.
func uniqueViolation(err error) (Code, bool) {
	switch {
	case errors.Is(err, common.ErrEmailTaken):
		return CodeEmailIsNotUnique, true
	case errors.Is(err, common.ErrUsernameTaken):
		return CodeLoginIsNotUnique, true
	}
	return CodeBadRequestType, false
}
