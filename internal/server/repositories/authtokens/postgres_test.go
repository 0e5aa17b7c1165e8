package authtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

func newRepoWithMock(t *testing.T, table Table) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db, table), mock, db
}

func TestCreate_UsesTable(t *testing.T) {
	for _, table := range []Table{AccessTokens, RefreshTokens} {
		t.Run(string(table), func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t, table)
			defer db.Close()

			expires := time.Now().Add(30 * time.Minute)
			q := `(?s)^INSERT\s+INTO\s+` + string(table) + `\s*\(user_id,\s*token,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id$`

			mock.ExpectQuery(q).
				WithArgs(int64(1), "tok123", expires).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

			id, err := repo.Create(context.Background(), 1, "tok123", expires)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != 11 {
				t.Fatalf("unexpected id %d", id)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, RefreshTokens)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+refresh_tokens`).
		WithArgs(int64(1), "tok123", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), 1, "tok123", time.Now())
	if err == nil || !regexp.MustCompile(`error performing sql request: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, AccessTokens)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*token,\s*expires_at,\s*created_at\s+FROM\s+access_tokens\s+WHERE\s+token\s*=\s*\$1$`

	expires := time.Now().Add(10 * time.Minute)
	mock.ExpectQuery(q).
		WithArgs("tok123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
			AddRow(int64(2), int64(1), "tok123", expires, time.Now()))

	got, err := repo.Find(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != 1 || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, AccessTokens)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+access_tokens`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, RefreshTokens)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1$`).
		WithArgs("tok123").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "tok123"); err != nil {
		t.Fatalf("delete of missing token must not fail: %v", err)
	}
}

func TestDeleteByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t, AccessTokens)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+access_tokens\s+WHERE\s+user_id\s*=\s*\$1$`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByUser(context.Background(), 4)
	if err != nil || n != 3 {
		t.Fatalf("DeleteByUser = %d, %v", n, err)
	}
}
