package refreshtokens

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/models"
)

// MemoryRepository keeps refresh tokens in process memory, keyed by hash.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	tokens map[string]models.RefreshToken
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]models.RefreshToken), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[tokenHash]; ok {
		return common.ErrorAlreadyExists
	}
	r.nextID++
	r.tokens[tokenHash] = models.RefreshToken{
		ID:        r.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: r.now().UTC(),
	}
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) Delete(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[tokenHash]; !ok {
		return common.ErrorNotFound
	}
	delete(r.tokens, tokenHash)
	return nil
}

func (r *MemoryRepository) DeleteAllForUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	maps.DeleteFunc(r.tokens, func(_ string, t models.RefreshToken) bool {
		return t.UserID == userID
	})
	return nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	maps.DeleteFunc(r.tokens, func(_ string, t models.RefreshToken) bool {
		if t.Expired(before) {
			n++
			return true
		}
		return false
	})
	return n, nil
}

// Snapshot captures the current contents and returns a function that puts
// them back.
func (r *MemoryRepository) Snapshot() (restore func()) {
	r.mu.RLock()
	saved := maps.Clone(r.tokens)
	savedNext := r.nextID
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.tokens = saved
		r.nextID = savedNext
		r.mu.Unlock()
	}
}
