// Package repomanager vends repositories bound to a database handle, so the
// same code path can run against the pool or inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/authtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/confirmationtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	ConfirmationTokens(db dbx.DBTX) confirmationtokens.Repository
	AccessTokens(db dbx.DBTX) authtokens.Repository
	RefreshTokens(db dbx.DBTX) authtokens.Repository
}
