package services

import (
	"context"
	"database/sql/driver"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/accountd/internal/dbx"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/password"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store  *repomanager.MemoryRepositoryManager
	issuer *auth.Issuer
	clock  *clock
	auth   *AuthService
	users  *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, repomanager.NewMemoryRepositoryManager())
}

func newFixtureWith(t *testing.T, store repomanager.RepositoryManager) *fixture {
	t.Helper()

	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}, auth.WithClock(c.Now))
	require.NoError(t, err)

	hasher := password.NewBcryptHasher(password.WithCost(bcrypt.MinCost))
	as, err := NewAuthService(store, hasher, issuer, logging.NewNop())
	require.NoError(t, err)
	as.now = c.Now

	f := &fixture{
		issuer: issuer,
		clock:  c,
		auth:   as,
		users:  NewUserService(store, hasher, logging.NewNop()),
	}
	if m, ok := store.(*repomanager.MemoryRepositoryManager); ok {
		f.store = m
	}
	return f
}

func (f *fixture) register(t *testing.T, email string) *AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{
		Name: "Ann", Email: email, Age: 30, Password: "secretpw",
	})
	require.NoError(t, err)
	return res
}

// flakyStore fails the first users lookup with a dropped connection, and
// can be told to fail every call with a permanent error.
type flakyStore struct {
	*repomanager.MemoryRepositoryManager
	mu        sync.Mutex
	flaked    bool
	permanent error
}

func (s *flakyStore) Users(db dbx.DBTX) users.Repository {
	return &flakyUsers{Repository: s.MemoryRepositoryManager.Users(db), store: s}
}

type flakyUsers struct {
	users.Repository
	store *flakyStore
}

func (u *flakyUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	if u.store.permanent != nil {
		return nil, u.store.permanent
	}
	if !u.store.flaked {
		u.store.flaked = true
		return nil, driver.ErrBadConn
	}
	return u.Repository.GetByEmail(ctx, email)
}

func (u *flakyUsers) List(ctx context.Context) ([]*models.User, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	if u.store.permanent != nil {
		return nil, u.store.permanent
	}
	return u.Repository.List(ctx)
}
