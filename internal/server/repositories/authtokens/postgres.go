package authtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX for one table.
type PostgresRepository struct {
	db    dbx.DBTX
	table Table
}

// NewPostgresRepository binds a repository to db and one of the token tables.
func NewPostgresRepository(db dbx.DBTX, table Table) *PostgresRepository {
	return &PostgresRepository{db: db, table: table}
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, r.table)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, userID, token, expiresAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.AuthToken, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, token, expires_at, created_at
		FROM %s
		WHERE token = $1
	`, r.table)

	t := &models.AuthToken{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE token = $1`, r.table)
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
