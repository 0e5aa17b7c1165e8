package grpc

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/account"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type fakeLifecycle struct {
	mu   sync.Mutex
	resp account.Response
	err  error
	last account.Request
}

func (f *fakeLifecycle) answer(req account.Request) (account.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	return f.resp, f.err
}

func (f *fakeLifecycle) lastRequest() account.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeLifecycle) Register(_ context.Context, req account.RegistrationRequest) (account.Response, error) {
	return f.answer(req)
}

func (f *fakeLifecycle) Confirm(_ context.Context, req account.ConfirmationRequest) (account.Response, error) {
	return f.answer(req)
}

func (f *fakeLifecycle) Unlock(_ context.Context, req account.UnlockRequest) (account.Response, error) {
	return f.answer(req)
}

func (f *fakeLifecycle) ResetPassword(_ context.Context, req account.ResetPasswordRequest) (account.Response, error) {
	return f.answer(req)
}

func (f *fakeLifecycle) ChangePassword(_ context.Context, req account.ChangePasswordRequest) (account.Response, error) {
	return f.answer(req)
}

var testIdentities = map[string]*auth.Identity{
	"user-token":  {UserID: 7, Email: "user@example.com", Roles: []models.Role{{ID: 1, Name: "USER"}}},
	"admin-token": {UserID: 1, Email: "admin@example.com", Roles: []models.Role{{ID: 2, Name: "ADMIN"}}},
}

type fakeSessions struct {
	mu      sync.Mutex
	pair    *services.TokenPair
	err     error
	authErr error

	loggedOut [2]string
}

func (f *fakeSessions) Login(context.Context, string, string) (*services.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakeSessions) Refresh(context.Context, string) (*services.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakeSessions) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	if id, ok := testIdentities[token]; ok {
		return id, nil
	}
	return nil, common.ErrInvalidToken
}

func (f *fakeSessions) Logout(_ context.Context, access, refresh string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = [2]string{access, refresh}
	return f.err
}
