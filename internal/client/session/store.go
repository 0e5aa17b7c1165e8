// Package session keeps the CLI's signed-in session in a local SQLite file
// so that tokens survive between runs.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/gophauth/internal/client/session/migrations"
	"github.com/dmitrijs2005/gophauth/internal/filex"
)

// Session is the state of a signed-in user.
type Session struct {
	Email           string
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

// Store holds at most one session.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite file at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	path, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to migrate session store: %w", err)
	}
	return nil
}

// Load returns the stored session, or nil if there is none.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	var (
		out     Session
		expires int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT email, access_token, refresh_token, access_expires_at FROM session WHERE id = 1`,
	).Scan(&out.Email, &out.AccessToken, &out.RefreshToken, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	out.AccessExpiresAt = time.Unix(expires, 0).UTC()
	return &out, nil
}

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, ses *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, email, access_token, refresh_token, access_expires_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			access_expires_at = excluded.access_expires_at
	`, ses.Email, ses.AccessToken, ses.RefreshToken, ses.AccessExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
