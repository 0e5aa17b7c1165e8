package confirmationtokens

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) NextID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT nextval('confirmation_tokens_id_seq')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.ConfirmationToken, validity time.Duration) error {
	query := `
		INSERT INTO confirmation_tokens (id, user_id, token, expires_at)
		VALUES ($1, $2, $3, now() + make_interval(secs => $4))
		RETURNING expires_at, created_at
	`
	err := r.db.QueryRowContext(ctx, query, token.ID, token.UserID, token.Token, validity.Seconds()).
		Scan(&token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.ConfirmationToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM confirmation_tokens
		WHERE id = $1
	`
	t := &models.ConfirmationToken{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Retire(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE confirmation_tokens
		SET expires_at = $2
		WHERE id = $1 AND expires_at > $2
	`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
