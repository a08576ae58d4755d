// Package repomanager hands out repositories bound to either the shared
// connection or a transaction, and owns the storage lifecycle.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/accountd/internal/dbx"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error

	// Conn is the non-transactional handle for single statements.
	Conn() dbx.DBTX

	// WithTx runs fn atomically. Repositories obtained from the handle passed
	// to fn see each other's writes; all of them are discarded if fn fails.
	WithTx(ctx context.Context, fn dbx.TxFunc) error

	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository

	Ping(ctx context.Context) error
	Close() error
}
