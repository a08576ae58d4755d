package users

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/models"
)

// MemoryRepository keeps users in process memory. It is used when the
// service runs without a database and in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.User
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]models.User), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.findByEmail(user.Email); taken {
		return nil, common.ErrorAlreadyExists
	}

	r.nextID++
	now := r.now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = *user

	return user, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.findByEmail(email)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(r.byID))
	list := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		u := r.byID[id]
		list = append(list, &u)
	}
	return list, nil
}

func (r *MemoryRepository) Update(_ context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Email != nil && *upd.Email != u.Email {
		if _, taken := r.findByEmail(*upd.Email); taken {
			return nil, common.ErrorAlreadyExists
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Age != nil {
		u.Age = *upd.Age
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = r.now().UTC()
	r.byID[id] = u

	return &u, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

// Snapshot captures the current contents and returns a function that puts
// them back. It backs rollback in the in-memory transaction.
func (r *MemoryRepository) Snapshot() (restore func()) {
	r.mu.RLock()
	saved := maps.Clone(r.byID)
	savedNext := r.nextID
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.byID = saved
		r.nextID = savedNext
		r.mu.Unlock()
	}
}

func (r *MemoryRepository) findByEmail(email string) (models.User, bool) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}
