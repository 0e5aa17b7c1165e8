package account

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/confirmation"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/confirmationtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type confirmationProcess struct {
	baseProcess
	tokens confirmationtokens.Repository
	users  users.Repository
	issuer *confirmation.Issuer
}

func (p *confirmationProcess) Check(ctx context.Context, req Request) (Response, error) {
	r, ok := req.(ConfirmationRequest)
	if !ok {
		return reject(CodeBadRequestType), nil
	}

	tok, err := p.tokens.FindByID(ctx, r.TokenID)
	if errors.Is(err, common.ErrorNotFound) {
		return reject(CodeTokenNotFound), nil
	}
	if err != nil {
		return Response{}, err
	}

	if subtle.ConstantTimeCompare([]byte(tok.Token), []byte(r.Token)) != 1 {
		return reject(CodeInvalidTokenValue), nil
	}
	if tok.Expired(p.issuer.Now()) {
		return reject(CodeTokenExpired), nil
	}

	return accept(CodeTokenIsValid), nil
}

// Update retires the token and marks its account verified and unblocked.
// When another confirmation retired the token first the result is
// CodeTokenExpired and the account is left alone.
func (p *confirmationProcess) Update(ctx context.Context, req Request) (Response, error) {
	r, ok := req.(ConfirmationRequest)
	if !ok {
		return Response{}, p.badRequest(req)
	}

	tok, err := p.tokens.FindByID(ctx, r.TokenID)
	if errors.Is(err, common.ErrorNotFound) {
		return reject(CodeTokenNotFound), nil
	}
	if err != nil {
		return Response{}, err
	}

	won, err := p.issuer.Consume(ctx, tok.ID)
	if err != nil {
		return Response{}, err
	}
	if !won {
		return reject(CodeTokenExpired), nil
	}

	if err := p.users.UpdateBlockedVerifiedFlags(ctx, tok.UserID, false, true); err != nil {
		return Response{}, err
	}

	return accept(CodeAccountConfirmed), nil
}
