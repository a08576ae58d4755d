package users

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@x.com", Age: 30, PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", byID.Name)

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_DuplicateEmail(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@x.com", Age: 30})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.User{Name: "B", Email: "a@x.com", Age: 40})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	b, err := repo.Create(ctx, &models.User{Name: "B", Email: "b@x.com", Age: 40})
	require.NoError(t, err)
	_, err = repo.Update(ctx, b.ID, models.UserUpdate{Email: strPtr("a@x.com")})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@x.com", Age: 30})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name)
}

func TestMemoryRepository_UpdateOnlySetFields(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@x.com", Age: 30, PasswordHash: "h"})
	require.NoError(t, err)

	got, err := repo.Update(ctx, u.ID, models.UserUpdate{Age: intPtr(31)})
	require.NoError(t, err)
	assert.Equal(t, 31, got.Age)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "h", got.PasswordHash)

	_, err = repo.Update(ctx, 42, models.UserUpdate{Age: intPtr(1)})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_ListOrderedAndDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for _, email := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		_, err := repo.Create(ctx, &models.User{Name: "n", Email: email, Age: 20})
		require.NoError(t, err)
	}

	require.NoError(t, repo.Delete(ctx, 2))
	assert.ErrorIs(t, repo.Delete(ctx, 2), common.ErrorNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)
}

func TestMemoryRepository_SnapshotRestore(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@x.com", Age: 30})
	require.NoError(t, err)

	restore := repo.Snapshot()
	_, err = repo.Create(ctx, &models.User{Name: "B", Email: "b@x.com", Age: 30})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, 1))
	restore()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a@x.com", list[0].Email)

	c, err := repo.Create(ctx, &models.User{Name: "C", Email: "c@x.com", Age: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.ID, "id sequence is rolled back too")
}
