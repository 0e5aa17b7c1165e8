// Package memory is an in-process implementation of every repository. It
// backs the server when no database is configured and doubles as the store
// in tests. Transactions are serialized and roll back by restoring a
// snapshot.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/authtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/confirmationtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

var ErrDuplicate = errors.New("duplicate key")

type state struct {
	userSeq      int64
	confirmSeq   int64
	authSeq      int64
	users        map[int64]models.User
	roles        map[int64]models.Role
	userRoles    map[int64][]int64
	confirmation map[int64]models.ConfirmationToken
	tokens       map[authtokens.Table]map[string]models.AuthToken
}

func (s *state) clone() *state {
	cp := *s
	cp.users = maps.Clone(s.users)
	cp.roles = maps.Clone(s.roles)
	cp.userRoles = make(map[int64][]int64, len(s.userRoles))
	for k, v := range s.userRoles {
		cp.userRoles[k] = append([]int64(nil), v...)
	}
	cp.confirmation = maps.Clone(s.confirmation)
	cp.tokens = make(map[authtokens.Table]map[string]models.AuthToken, len(s.tokens))
	for k, v := range s.tokens {
		cp.tokens[k] = maps.Clone(v)
	}
	return &cp
}

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	st   *state
	now  func() time.Time
}

// New returns an empty store seeded with the USER and ADMIN roles.
func New() *Store {
	return &Store{
		st: &state{
			users:        map[int64]models.User{},
			roles:        map[int64]models.Role{1: {ID: 1, Name: "USER"}, 2: {ID: 2, Name: "ADMIN"}},
			userRoles:    map[int64][]int64{},
			confirmation: map[int64]models.ConfirmationToken{},
			tokens: map[authtokens.Table]map[string]models.AuthToken{
				authtokens.AccessTokens:  {},
				authtokens.RefreshTokens: {},
			},
		},
		now: time.Now,
	}
}

// WithClock replaces the clock used for created_at and expiry columns.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// RunInTx runs fn with exclusive access to the store. When fn fails every
// change it made is discarded.
func (s *Store) RunInTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(ctx, nil)
}

func (s *Store) restore(st *state) {
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository { return &userRepo{s: s} }

func (s *Store) Roles(dbx.DBTX) roles.Repository { return &roleRepo{s: s} }

func (s *Store) ConfirmationTokens(dbx.DBTX) confirmationtokens.Repository {
	return &confirmationRepo{s: s}
}

func (s *Store) AccessTokens(dbx.DBTX) authtokens.Repository {
	return &authTokenRepo{s: s, table: authtokens.AccessTokens}
}

func (s *Store) RefreshTokens(dbx.DBTX) authtokens.Repository {
	return &authTokenRepo{s: s, table: authtokens.RefreshTokens}
}

// locked runs fn under the store mutex.
func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", ErrDuplicate, what)
}
