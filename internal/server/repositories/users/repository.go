// Package users declares the user repository contract and its PostgreSQL and
// in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/accountd/internal/server/models"
)

// Repository stores user accounts. Emails are compared exactly; callers
// normalize them first.
type Repository interface {
	// Create inserts user and fills in ID and timestamps. A taken email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail and GetByID return common.ErrorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// List returns all users ordered by id.
	List(ctx context.Context) ([]*models.User, error)

	// Update applies the non-nil fields of upd and bumps UpdatedAt.
	Update(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error)

	// Delete removes the user; common.ErrorNotFound if there was none.
	Delete(ctx context.Context, id int64) error
}
