package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/accountd/internal/dbx"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. The DBTX
// arguments are ignored: every handle sees the same repositories.
//
// Transactions are serialized against each other and undone by restoring a
// snapshot. Every write must therefore go through WithTx: a write made on
// Conn() while a transaction runs is lost if that transaction rolls back.
// A reader outside WithTx may observe writes of a transaction that later
// rolls back.
type MemoryRepositoryManager struct {
	txMu   sync.Mutex
	users  *users.MemoryRepository
	tokens *refreshtokens.MemoryRepository
}

// NewMemoryRepositoryManager returns an empty in-memory store.
func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:  users.NewMemoryRepository(),
		tokens: refreshtokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	restoreUsers := m.users.Snapshot()
	restoreTokens := m.tokens.Snapshot()

	defer func() {
		if p := recover(); p != nil {
			restoreUsers()
			restoreTokens()
			panic(p)
		}
		if err != nil {
			restoreUsers()
			restoreTokens()
		}
	}()

	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.tokens }

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryRepositoryManager) Close() error { return nil }
