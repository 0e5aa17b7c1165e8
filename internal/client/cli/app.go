// Package cli is an interactive client for the gophauth gRPC API. It walks
// a user through registration, confirmation, sign-in and password changes,
// keeping the signed-in session in a local store.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/gophauth/internal/client/session"
	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

// Accounts is satisfied by *grpc.AccountClient.
type Accounts interface {
	Register(ctx context.Context, in *gs.RegisterRequest, opts ...grpc.CallOption) (*gs.LifecycleReply, error)
	Confirm(ctx context.Context, in *gs.ConfirmRequest, opts ...grpc.CallOption) (*gs.LifecycleReply, error)
	Unlock(ctx context.Context, in *gs.UnlockRequest, opts ...grpc.CallOption) (*gs.LifecycleReply, error)
	ResetPassword(ctx context.Context, in *gs.ResetPasswordRequest, opts ...grpc.CallOption) (*gs.LifecycleReply, error)
	ChangePassword(ctx context.Context, in *gs.ChangePasswordRequest, opts ...grpc.CallOption) (*gs.LifecycleReply, error)
	Login(ctx context.Context, in *gs.LoginRequest, opts ...grpc.CallOption) (*gs.TokenReply, error)
	Refresh(ctx context.Context, in *gs.RefreshRequest, opts ...grpc.CallOption) (*gs.TokenReply, error)
	Logout(ctx context.Context, in *gs.LogoutRequest, opts ...grpc.CallOption) (*gs.Empty, error)
	Me(ctx context.Context, opts ...grpc.CallOption) (*gs.IdentityReply, error)
}

// SessionStore is satisfied by *session.Store.
type SessionStore interface {
	Load(ctx context.Context) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Clear(ctx context.Context) error
}

// refreshMargin renews the access token slightly before it expires.
const refreshMargin = 10 * time.Second

type App struct {
	accounts Accounts
	sessions SessionStore
	session  *session.Session
	reader   *bufio.Reader
	out      io.Writer
	now      func() time.Time
}

func NewApp(accounts Accounts, sessions SessionStore, in io.Reader, out io.Writer) *App {
	return &App{
		accounts: accounts,
		sessions: sessions,
		reader:   bufio.NewReader(in),
		out:      out,
		now:      time.Now,
	}
}

// Run restores a saved session and starts the prompt loop.
func (a *App) Run(ctx context.Context) error {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		return err
	}
	a.session = s

	fmt.Fprintln(a.out, "Welcome to gophauth CLI (type 'help' for commands)")
	runREPL(ctx, a, a.reader, a.out)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) status() string {
	if a.session == nil {
		return ""
	}
	return "(" + a.session.Email + ") "
}

// authorized returns ctx carrying a fresh access token.
func (a *App) authorized(ctx context.Context) (context.Context, error) {
	if a.session == nil {
		return nil, errNotLoggedIn
	}
	if a.now().Add(refreshMargin).After(a.session.AccessExpiresAt) {
		if err := a.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return gs.WithAccessToken(ctx, a.session.AccessToken), nil
}

func (a *App) saveTokens(ctx context.Context, email string, t *gs.TokenReply) error {
	s := &session.Session{
		Email:           email,
		AccessToken:     t.AccessToken,
		RefreshToken:    t.RefreshToken,
		AccessExpiresAt: t.AccessExpiresAt,
	}
	if err := a.sessions.Save(ctx, s); err != nil {
		return err
	}
	a.session = s
	return nil
}

func (a *App) printReply(r *gs.LifecycleReply) {
	mark := "OK"
	if !r.Success {
		mark = "REJECTED"
	}
	fmt.Fprintf(a.out, "%s %s.%s: %s\n", mark, r.Action, r.Code, r.Message)
}
