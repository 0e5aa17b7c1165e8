package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/confirmation"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_FreshAccount(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	req := RegistrationRequest{Username: "alice", Password: "pw1", Email: "alice@x.com"}

	p, err := e.dispatcher.Create(Registration, nil)
	require.NoError(t, err)
	resp, err := p.Check(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodeUniqueLoginAndEmail}, resp)

	resp, err = e.facade.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodeRegistrationVerificationQueued}, resp)

	u := e.user(t, 1)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.False(t, u.Verified)
	assert.False(t, u.Blocked)
	assert.True(t, e.hasher.Check(u.PasswordHash, "pw1"))

	roles, err := e.store.Roles(nil).FindByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, DefaultRole, roles[0].Name)

	tok := e.token(t, 1)
	assert.Equal(t, u.ID, tok.UserID)
	assert.Len(t, tok.Token, 100)

	require.Equal(t, 1, e.notifier.count())
	mail := e.notifier.last()
	assert.Equal(t, "alice@x.com", mail.To)
	assert.Contains(t, mail.Body, tok.Token)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	resp, err := e.facade.Register(ctx, RegistrationRequest{Username: "alice", Password: "pw1", Email: "alice@x.com"})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	resp, err = e.facade.Register(ctx, RegistrationRequest{Username: "alice2", Password: "pw2", Email: "alice@x.com"})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeEmailIsNotUnique}, resp)

	taken, err := e.store.Users(nil).IsUsernameTaken(ctx, "alice2")
	require.NoError(t, err)
	assert.False(t, taken)
	assert.Equal(t, 1, e.notifier.count())
}

func TestRegister_DuplicateLogin(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "alice", "alice@x.com", "pw", false, true)

	resp, err := e.facade.Register(context.Background(), RegistrationRequest{Username: "alice", Password: "pw", Email: "other@x.com"})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeLoginIsNotUnique}, resp)
}

// racingUsers hides existing accounts from the uniqueness checks, as an
// uncommitted concurrent registration would.
type racingUsers struct{ users.Repository }

func (racingUsers) IsEmailTaken(context.Context, string) (bool, error)    { return false, nil }
func (racingUsers) IsUsernameTaken(context.Context, string) (bool, error) { return false, nil }

type racingManager struct{ *memory.Store }

func (m racingManager) Users(db dbx.DBTX) users.Repository {
	return racingUsers{m.Store.Users(db)}
}

func TestRegister_LostUniqueRaceIsRejected(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "alice", "alice@x.com", "pw", false, true)

	d := NewDispatcher(Dependencies{
		Repositories: racingManager{e.store},
		Hasher:       e.hasher,
		Generator:    fixedGenerator{pw: "x"},
		Issuer:       confirmation.NewIssuer(0, time.Hour),
		Notifier:     e.notifier,
		Templates:    notify.NewTemplates("https://auth.test"),
	})
	f := NewFacade(d, e.store, logging.Discard(), nil)

	resp, err := f.Register(context.Background(), RegistrationRequest{Username: "alice2", Password: "pw", Email: "alice@x.com"})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeEmailIsNotUnique}, resp)

	resp, err = f.Register(context.Background(), RegistrationRequest{Username: "alice", Password: "pw", Email: "other@x.com"})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeLoginIsNotUnique}, resp)

	assert.Equal(t, 0, e.notifier.count())
}

func TestRegister_MailFailureIsReported(t *testing.T) {
	e := newTestEnv(t)
	e.notifier.err = errors.New("smtp down")

	resp, err := e.facade.Register(context.Background(), RegistrationRequest{Username: "bob", Password: "pw", Email: "bob@x.com"})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodeRegisteredButMailNotSend}, resp)
	assert.Equal(t, "bob", e.user(t, 1).UserName)
}

func TestRegister_FaultRollsBack(t *testing.T) {
	e := newTestEnv(t)
	e.rebuild(failingHasher{})

	_, err := e.facade.Register(context.Background(), RegistrationRequest{Username: "bob", Password: "pw", Email: "bob@x.com"})
	require.Error(t, err)

	taken, err := e.store.Users(nil).IsEmailTaken(context.Background(), "bob@x.com")
	require.NoError(t, err)
	assert.False(t, taken)
	assert.Equal(t, 0, e.notifier.count())
}

func TestConfirm(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.facade.Register(ctx, RegistrationRequest{Username: "alice", Password: "pw1", Email: "alice@x.com"})
	require.NoError(t, err)
	tok := e.token(t, 1)

	resp, err := e.facade.Confirm(ctx, ConfirmationRequest{TokenID: 99, Token: tok.Token})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeTokenNotFound}, resp)

	resp, err = e.facade.Confirm(ctx, ConfirmationRequest{TokenID: tok.ID, Token: "wrong"})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeInvalidTokenValue}, resp)

	resp, err = e.facade.Confirm(ctx, ConfirmationRequest{TokenID: tok.ID, Token: tok.Token})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodeAccountConfirmed}, resp)

	u := e.user(t, tok.UserID)
	assert.True(t, u.Verified)
	assert.False(t, u.Blocked)

	resp, err = e.facade.Confirm(ctx, ConfirmationRequest{TokenID: tok.ID, Token: tok.Token})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeTokenExpired}, resp)
}

func TestConfirm_Expired(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.facade.Register(ctx, RegistrationRequest{Username: "alice", Password: "pw1", Email: "alice@x.com"})
	require.NoError(t, err)
	tok := e.token(t, 1)

	e.now = t0.Add(24 * time.Hour)
	resp, err := e.facade.Confirm(ctx, ConfirmationRequest{TokenID: tok.ID, Token: tok.Token})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeTokenExpired}, resp)
	assert.False(t, e.user(t, tok.UserID).Verified)
}

func TestConfirm_ConcurrentAttemptsConsumeOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.facade.Register(ctx, RegistrationRequest{Username: "alice", Password: "pw1", Email: "alice@x.com"})
	require.NoError(t, err)
	tok := e.token(t, 1)

	const n = 8
	results := make(chan Response, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := e.facade.Confirm(ctx, ConfirmationRequest{TokenID: tok.ID, Token: tok.Token})
			assert.NoError(t, err)
			results <- resp
		}()
	}
	wg.Wait()
	close(results)

	confirmed := 0
	for r := range results {
		if r.Success {
			confirmed++
			assert.Equal(t, CodeAccountConfirmed, r.Code)
		} else {
			assert.Equal(t, CodeTokenExpired, r.Code)
		}
	}
	assert.Equal(t, 1, confirmed)
}

func TestUnlock(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	resp, err := e.facade.Unlock(ctx, UnlockRequest{UserID: 42})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeAccountNotExistUnlock}, resp)

	active := e.seedUser(t, "ann", "ann@x.com", "pw", false, true)
	resp, err = e.facade.Unlock(ctx, UnlockRequest{UserID: active.ID})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeAccountVerifiedAndNotBlocked}, resp)
	assert.Equal(t, 0, e.notifier.count())

	blocked := e.seedUser(t, "bob", "bob@x.com", "pw", true, true)
	p, err := e.dispatcher.Create(Unlock, nil)
	require.NoError(t, err)
	resp, err = p.Check(ctx, UnlockRequest{UserID: blocked.ID})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodeAccountCanBeUnlocked}, resp)

	resp, err = e.facade.Unlock(ctx, UnlockRequest{UserID: blocked.ID})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodeUnlockVerificationQueued}, resp)

	u := e.user(t, blocked.ID)
	assert.False(t, u.Blocked)
	assert.False(t, u.Verified)
	assert.Equal(t, "bob@x.com", e.notifier.last().To)

	tok := e.token(t, 1)
	resp, err = e.facade.Confirm(ctx, ConfirmationRequest{TokenID: tok.ID, Token: tok.Token})
	require.NoError(t, err)
	assert.Equal(t, CodeAccountConfirmed, resp.Code)
	assert.True(t, e.user(t, blocked.ID).Verified)
}

func TestUnlock_MailFailure(t *testing.T) {
	e := newTestEnv(t)
	u := e.seedUser(t, "bob", "bob@x.com", "pw", true, false)
	e.notifier.err = errors.New("down")

	resp, err := e.facade.Unlock(context.Background(), UnlockRequest{UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodeUnlockMailNotSend}, resp)
}

func TestResetPassword(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	resp, err := e.facade.ResetPassword(ctx, ResetPasswordRequest{Email: "nobody@x.com"})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeAccountNotExistResetPasswd}, resp)

	unverified := e.seedUser(t, "uv", "uv@x.com", "pw", false, false)
	resp, err = e.facade.ResetPassword(ctx, ResetPasswordRequest{Email: unverified.Email})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeAccountIsNotVerifiedResetPasswd}, resp)

	u := e.seedUser(t, "alice", "alice@x.com", "old", false, true)
	resp, err = e.facade.ResetPassword(ctx, ResetPasswordRequest{Email: u.Email})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodeNewPasswordMailQueued}, resp)

	stored := e.user(t, u.ID)
	assert.True(t, e.hasher.Check(stored.PasswordHash, "Gen3rated!pw"))
	assert.False(t, e.hasher.Check(stored.PasswordHash, "old"))
	assert.Empty(t, stored.GeneratedPassword)

	mail := e.notifier.last()
	assert.Equal(t, "alice@x.com", mail.To)
	assert.Contains(t, mail.Body, "Gen3rated!pw")
}

func TestResetPassword_BlockedAccountIsNotTouched(t *testing.T) {
	e := newTestEnv(t)
	u := e.seedUser(t, "bob", "bob@x.com", "old", true, true)

	resp, err := e.facade.ResetPassword(context.Background(), ResetPasswordRequest{Email: u.Email})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: false, Code: CodeAccountIsBlockedResetPasswd}, resp)

	assert.Equal(t, u.PasswordHash, e.user(t, u.ID).PasswordHash)
	assert.Equal(t, 0, e.notifier.count())
}

func TestResetPassword_MailFailure(t *testing.T) {
	e := newTestEnv(t)
	u := e.seedUser(t, "alice", "alice@x.com", "old", false, true)
	e.notifier.err = errors.New("down")

	resp, err := e.facade.ResetPassword(context.Background(), ResetPasswordRequest{Email: u.Email})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodePasswordResetButMailNotSend}, resp)
}

func TestChangePassword(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t, "alice", "alice@x.com", "old", false, true)
	req := ChangePasswordRequest{UserID: u.ID, Email: u.Email, ActualPassword: "old", NewPassword: "new"}

	p, err := e.dispatcher.Create(ChangePassword, nil)
	require.NoError(t, err)
	resp, err := p.Check(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodePasswordCanBeChanged}, resp)

	resp, err = e.facade.ChangePassword(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodePasswordChanged}, resp)

	stored := e.user(t, u.ID)
	assert.NotEqual(t, u.PasswordHash, stored.PasswordHash)
	assert.True(t, e.hasher.Check(stored.PasswordHash, "new"))
	assert.Equal(t, "alice@x.com", e.notifier.last().To)
}

func TestChangePassword_MailFailureDowngradesCode(t *testing.T) {
	e := newTestEnv(t)
	u := e.seedUser(t, "alice", "alice@x.com", "old", false, true)
	e.notifier.err = errors.New("down")

	resp, err := e.facade.ChangePassword(context.Background(),
		ChangePasswordRequest{UserID: u.ID, Email: u.Email, ActualPassword: "old", NewPassword: "new"})
	require.NoError(t, err)
	assert.Equal(t, Response{Success: true, Code: CodePasswordChangedButMailNotSend}, resp)
	assert.True(t, e.hasher.Check(e.user(t, u.ID).PasswordHash, "new"))
}

func TestChangePassword_Rejections(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser(t, "alice", "alice@x.com", "old", false, true)
	bob := e.seedUser(t, "bob", "bob@x.com", "old", true, true)

	tests := []struct {
		name string
		req  ChangePasswordRequest
		want Code
	}{
		{"unknown email", ChangePasswordRequest{UserID: alice.ID, Email: "x@x.com", ActualPassword: "old", NewPassword: "n"}, CodeEmailNotExist},
		{"someone else's email", ChangePasswordRequest{UserID: alice.ID, Email: bob.Email, ActualPassword: "old", NewPassword: "n"}, CodeEmailNotExist},
		{"blocked", ChangePasswordRequest{UserID: bob.ID, Email: bob.Email, ActualPassword: "old", NewPassword: "n"}, CodeAccountIsBlockedChangePasswd},
		{"bad actual password", ChangePasswordRequest{UserID: alice.ID, Email: alice.Email, ActualPassword: "nope", NewPassword: "n"}, CodeBadActualPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := e.facade.ChangePassword(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, Response{Success: false, Code: tt.want}, resp)
		})
	}

	assert.Equal(t, alice.PasswordHash, e.user(t, alice.ID).PasswordHash)
	assert.Equal(t, 0, e.notifier.count())
}

func TestFacade_RecordsOutcomes(t *testing.T) {
	e := newTestEnv(t)
	reg := prometheus.NewRegistry()
	e.facade = NewFacade(e.dispatcher, e.store, logging.Discard(), metrics.New(reg))
	ctx := context.Background()

	_, err := e.facade.Register(ctx, RegistrationRequest{Username: "a", Password: "p", Email: "a@x.com"})
	require.NoError(t, err)
	_, err = e.facade.Register(ctx, RegistrationRequest{Username: "b", Password: "p", Email: "a@x.com"})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "gophauth_lifecycle_outcomes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
