package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

var errNotLoggedIn = errors.New("not logged in")

// getSimpleText and getPassword are test seams.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	reply, err := a.accounts.Register(ctx, &gs.RegisterRequest{Username: username, Password: password, Email: email})
	if err != nil {
		return err
	}
	a.printReply(reply)
	return nil
}

// Confirm takes the token id and value from the confirmation mail.
func (a *App) Confirm(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: confirm <token id> <token>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid token id %q", args[0])
	}

	reply, err := a.accounts.Confirm(ctx, &gs.ConfirmRequest{TokenID: id, Token: args[1]})
	if err != nil {
		return err
	}
	a.printReply(reply)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	tokens, err := a.accounts.Login(ctx, &gs.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	if err := a.saveTokens(ctx, email, tokens); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Refresh rotates the token pair. A rejected refresh token ends the session.
func (a *App) Refresh(ctx context.Context) error {
	if a.session == nil {
		return errNotLoggedIn
	}
	tokens, err := a.accounts.Refresh(ctx, &gs.RefreshRequest{RefreshToken: a.session.RefreshToken})
	if status.Code(err) == codes.Unauthenticated {
		_ = a.clearSession(ctx)
		return errors.New("session expired, please log in again")
	}
	if err != nil {
		return err
	}
	return a.saveTokens(ctx, a.session.Email, tokens)
}

func (a *App) Me(ctx context.Context) error {
	ctx, err := a.authorized(ctx)
	if err != nil {
		return err
	}
	me, err := a.accounts.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %d <%s>\n", me.UserID, me.Email)
	for _, r := range me.Roles {
		fmt.Fprintf(a.out, "  role %s\n", r.Name)
	}
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	ctx, err := a.authorized(ctx)
	if err != nil {
		return err
	}
	actual, err := getPassword("Enter current password", a.out)
	if err != nil {
		return err
	}
	next, err := getPassword("Enter new password", a.out)
	if err != nil {
		return err
	}

	reply, err := a.accounts.ChangePassword(ctx, &gs.ChangePasswordRequest{
		Email:          a.session.Email,
		ActualPassword: actual,
		NewPassword:    next,
	})
	if err != nil {
		return err
	}
	a.printReply(reply)
	return nil
}

func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	reply, err := a.accounts.ResetPassword(ctx, &gs.ResetPasswordRequest{Email: email})
	if err != nil {
		return err
	}
	a.printReply(reply)
	return nil
}

// Unlock needs an administrator session.
func (a *App) Unlock(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: unlock <user id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	ctx, err = a.authorized(ctx)
	if err != nil {
		return err
	}

	reply, err := a.accounts.Unlock(ctx, &gs.UnlockRequest{UserID: id})
	if err != nil {
		return err
	}
	a.printReply(reply)
	return nil
}

// Logout revokes the tokens on the server and forgets the local session.
// The local session is cleared even if the server call fails.
func (a *App) Logout(ctx context.Context) error {
	if a.session == nil {
		return errNotLoggedIn
	}
	_, err := a.accounts.Logout(gs.WithAccessToken(ctx, a.session.AccessToken),
		&gs.LogoutRequest{RefreshToken: a.session.RefreshToken})
	if cerr := a.clearSession(ctx); cerr != nil {
		return cerr
	}
	return err
}

func (a *App) clearSession(ctx context.Context) error {
	a.session = nil
	return a.sessions.Clear(ctx)
}
