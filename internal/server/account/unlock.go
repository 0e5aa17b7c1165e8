package account

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type unlockProcess struct {
	baseProcess
	confirmationSender
	users users.Repository
}

func (p *unlockProcess) Check(ctx context.Context, req Request) (Response, error) {
	r, ok := req.(UnlockRequest)
	if !ok {
		return reject(CodeBadRequestType), nil
	}

	u, err := p.users.FindByID(ctx, r.UserID)
	if errors.Is(err, common.ErrorNotFound) {
		return reject(CodeAccountNotExistUnlock), nil
	}
	if err != nil {
		return Response{}, err
	}

	if u.IsVerified() && !u.IsBlocked() {
		return reject(CodeAccountVerifiedAndNotBlocked), nil
	}

	return accept(CodeAccountCanBeUnlocked), nil
}

// Save clears both flags. The account becomes verified again only through
// the confirmation mailed afterwards.
func (p *unlockProcess) Save(ctx context.Context, req Request) (*models.User, error) {
	r, ok := req.(UnlockRequest)
	if !ok {
		return nil, p.badRequest(req)
	}

	if err := p.users.UpdateBlockedVerifiedFlags(ctx, r.UserID, false, false); err != nil {
		return nil, err
	}
	return p.users.FindByID(ctx, r.UserID)
}
