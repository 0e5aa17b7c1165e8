package confirmation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func setup(t *testing.T) (*Issuer, *models.User) {
	t.Helper()
	ctx := context.Background()
	store := memory.New().WithClock(func() time.Time { return t0 })

	id, err := store.Users(nil).NextID(ctx)
	require.NoError(t, err)
	u := &models.User{ID: id, UserName: "alice", Email: "alice@x.com"}
	require.NoError(t, store.Users(nil).Create(ctx, u))

	iss := NewIssuer(0, time.Hour).
		WithClock(func() time.Time { return t0 }).
		With(store.ConfirmationTokens(nil))
	return iss, u
}

func TestIssuer_Issue(t *testing.T) {
	iss, u := setup(t)

	tok, err := iss.Issue(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, u.ID, tok.UserID)
	assert.Len(t, tok.Token, DefaultLength)
	assert.Empty(t, strings.Trim(tok.Token, cryptox.AlphaNumeric))
	assert.True(t, tok.ExpiresAt.Equal(t0.Add(time.Hour)))
	assert.False(t, tok.Expired(t0))

	next, err := iss.Issue(context.Background(), u)
	require.NoError(t, err)
	assert.Greater(t, next.ID, tok.ID)
	assert.NotEqual(t, tok.Token, next.Token)
}

func TestIssuer_IssueWithoutIdentity(t *testing.T) {
	iss, _ := setup(t)

	tok, err := iss.Issue(context.Background(), nil)
	assert.Nil(t, tok)
	assert.ErrorIs(t, err, common.ErrNoIdentity)
}

func TestIssuer_RetireIsIdempotent(t *testing.T) {
	iss, u := setup(t)
	ctx := context.Background()

	tok, err := iss.Issue(ctx, u)
	require.NoError(t, err)

	require.NoError(t, iss.Retire(ctx, tok.ID))
	require.NoError(t, iss.Retire(ctx, tok.ID))
	require.NoError(t, iss.Retire(ctx, 12345))

	won, err := iss.Consume(ctx, tok.ID)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestIssuer_ConsumeOnce(t *testing.T) {
	iss, u := setup(t)
	ctx := context.Background()

	tok, err := iss.Issue(ctx, u)
	require.NoError(t, err)

	won, err := iss.Consume(ctx, tok.ID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = iss.Consume(ctx, tok.ID)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestNewIssuer_Defaults(t *testing.T) {
	iss := NewIssuer(-1, 0)
	assert.Equal(t, DefaultLength, iss.length)
	assert.Equal(t, DefaultValidity, iss.validity)
}
