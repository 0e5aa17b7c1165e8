package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/confirmation"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type sentMail struct {
	To, Subject, Body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, address, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{address, subject, body})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) last() sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type fixedGenerator struct{ pw string }

func (g fixedGenerator) Generate() (string, error) { return g.pw, nil }

type failingHasher struct{ password.Hasher }

func (failingHasher) Hash(string) (string, error) { return "", errors.New("hasher broken") }

type testEnv struct {
	store      *memory.Store
	notifier   *fakeNotifier
	hasher     password.Hasher
	dispatcher *Dispatcher
	facade     *Facade
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		notifier: &fakeNotifier{},
		hasher:   password.NewBcryptHasher(bcrypt.MinCost),
		now:      t0,
	}
	clock := func() time.Time { return e.now }
	e.store = memory.New().WithClock(clock)
	e.rebuild(e.hasher)
	return e
}

func (e *testEnv) rebuild(h password.Hasher) {
	clock := func() time.Time { return e.now }
	e.dispatcher = NewDispatcher(Dependencies{
		Repositories: e.store,
		Hasher:       h,
		Generator:    fixedGenerator{pw: "Gen3rated!pw"},
		Issuer:       confirmation.NewIssuer(0, 24*time.Hour).WithClock(clock),
		Notifier:     e.notifier,
		Templates:    notify.NewTemplates("https://auth.test"),
	})
	e.facade = NewFacade(e.dispatcher, e.store, logging.Discard(), nil)
}

// seedUser stores an account directly, bypassing registration.
func (e *testEnv) seedUser(t *testing.T, name, email, plain string, blocked, verified bool) *models.User {
	t.Helper()
	ctx := context.Background()
	repo := e.store.Users(nil)

	id, err := repo.NextID(ctx)
	require.NoError(t, err)
	hash, err := e.hasher.Hash(plain)
	require.NoError(t, err)

	u := &models.User{ID: id, UserName: name, Email: email, PasswordHash: hash, Blocked: blocked, Verified: verified}
	require.NoError(t, repo.Create(ctx, u))
	return u
}

func (e *testEnv) user(t *testing.T, id int64) *models.User {
	t.Helper()
	u, err := e.store.Users(nil).FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) token(t *testing.T, id int64) *models.ConfirmationToken {
	t.Helper()
	tok, err := e.store.ConfirmationTokens(nil).FindByID(context.Background(), id)
	require.NoError(t, err)
	return tok
}
