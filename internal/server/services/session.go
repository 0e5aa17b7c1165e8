// Package services contains server-side business logic outside the account
// lifecycle. SessionService signs users in and out: it issues access and
// refresh tokens, persists them so they can be revoked, and resolves a
// presented access token back to an identity.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type SessionService struct {
	db          dbx.DBTX
	tx          dbx.TxRunner
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	hasher      password.Hasher
	logger      logging.Logger
	now         func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

func NewSessionService(db dbx.DBTX, tx dbx.TxRunner, m repomanager.RepositoryManager, codec *auth.Codec, hasher password.Hasher, logger logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		tx:          tx,
		repomanager: m,
		codec:       codec,
		hasher:      hasher,
		logger:      logger.With("module", "sessions"),
		now:         time.Now,
	}
}

// Login verifies the credentials of a verified, unblocked account and
// returns a new TokenPair. Every rejection is common.ErrorUnauthorized.
func (s *SessionService) Login(ctx context.Context, email, plain string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same bcrypt time as for an existing account
			s.hasher.Check(s.dummy(ctx), plain)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, "find user", err)
	}

	if !s.hasher.Check(user.PasswordHash, plain) {
		return nil, common.ErrorUnauthorized
	}
	if user.IsBlocked() || !user.IsVerified() {
		return nil, common.ErrorUnauthorized
	}

	if err := s.loadRoles(ctx, user); err != nil {
		return nil, err
	}

	var pair *TokenPair
	if err := s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, tx, user)
		return genErr
	}); err != nil {
		return nil, s.internal(ctx, "issue tokens", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, s.internal(ctx, "find refresh token", err)
	}
	if !token.ExpiresAt.After(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}
	if !s.codec.Validate(ctx, refreshToken) {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, "find user", err)
	}
	if user.IsBlocked() {
		return nil, common.ErrorUnauthorized
	}
	if err := s.loadRoles(ctx, user); err != nil {
		return nil, err
	}

	var pair *TokenPair
	if err := s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, tx, user)
		return genErr
	}); err != nil {
		return nil, s.internal(ctx, "rotate tokens", err)
	}
	return pair, nil
}

// Authenticate resolves an access token to its identity. A token that
// verifies but is no longer persisted has been revoked.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*auth.Identity, error) {
	if !s.codec.Validate(ctx, accessToken) {
		return nil, common.ErrInvalidToken
	}

	if _, err := s.repomanager.AccessTokens(s.db).Find(ctx, accessToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, s.internal(ctx, "find access token", err)
	}

	return s.codec.DecodeIdentity(accessToken)
}

// Logout revokes the given tokens. Unknown or empty tokens are ignored.
func (s *SessionService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if accessToken != "" {
			if err := s.repomanager.AccessTokens(tx).Delete(ctx, accessToken); err != nil {
				return err
			}
		}
		if refreshToken != "" {
			if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- helpers below ---

func (s *SessionService) loadRoles(ctx context.Context, user *models.User) error {
	roles, err := s.repomanager.Roles(s.db).FindByUserID(ctx, user.ID)
	if err != nil {
		return s.internal(ctx, "load roles", err)
	}
	user.Roles = roles
	return nil
}

func (s *SessionService) generateTokenPair(ctx context.Context, tx dbx.DBTX, user *models.User) (*TokenPair, error) {
	access, accessExp, err := s.issue(user, auth.Access)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.issue(user, auth.Refresh)
	if err != nil {
		return nil, err
	}

	if _, err := s.repomanager.AccessTokens(tx).Create(ctx, user.ID, access, accessExp); err != nil {
		return nil, err
	}
	if _, err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, refreshExp); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *SessionService) issue(user *models.User, kind auth.Kind) (string, time.Time, error) {
	tok, err := s.codec.Issue(user, kind)
	if err != nil {
		return "", time.Time{}, err
	}
	exp, err := s.codec.Expiry(tok)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// dummy returns a hash to compare against when the email is unknown. A
// failed hash is logged and retried on the next call.
func (s *SessionService) dummy(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash == "" {
		hash, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			s.logger.Error(ctx, "dummy password hash failed", "error", err)
			return ""
		}
		s.dummyHash = hash
	}
	return s.dummyHash
}

func (s *SessionService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}
