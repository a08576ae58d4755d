package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/dbx"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/password"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repomanager"
)

// UpdateInput holds the changes requested for a user. Nil means unchanged.
type UpdateInput struct {
	Name     *string
	Email    *string
	Age      *int
	Password *string
}

// UserService provides listing, lookup, update and deletion of users.
type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      password.Hasher
	logger      logging.Logger
}

// NewUserService constructs a UserService backed by the given repository manager.
func NewUserService(m repomanager.RepositoryManager, h password.Hasher, l logging.Logger) *UserService {
	return &UserService{repomanager: m, hasher: h, logger: l.With("module", "user_service")}
}

// List returns every user ordered by id.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := dbx.RetryValue(ctx, func(ctx context.Context) ([]*models.User, error) {
		return s.repomanager.Users(s.repomanager.Conn()).List(ctx)
	})
	if err != nil {
		return nil, internalError(ctx, s.logger, "list users", err)
	}
	return list, nil
}

// Get returns the user with the given id or common.ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := dbx.RetryValue(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, id)
	})
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, internalError(ctx, s.logger, "get user", err)
	}
	return u, nil
}

// Update applies in to the user. A new password revokes every refresh token
// the user holds.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateInput) (*models.User, error) {
	upd := models.UserUpdate{Name: in.Name, Age: in.Age}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		upd.Email = &email
	}
	if in.Password != nil {
		digest, err := hashPassword(s.hasher, *in.Password)
		if err != nil {
			if errors.Is(err, common.ErrValidation) {
				return nil, err
			}
			return nil, internalError(ctx, s.logger, "hash password", err)
		}
		upd.PasswordHash = &digest
	}
	if upd.IsEmpty() {
		return s.Get(ctx, id)
	}

	var out *models.User
	err := dbx.Retry(ctx, func(ctx context.Context) error {
		return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			u, err := s.repomanager.Users(tx).Update(ctx, id, upd)
			if err != nil {
				return err
			}
			if upd.PasswordHash != nil {
				if err := s.repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, id); err != nil {
					return err
				}
			}
			out = u
			return nil
		})
	})
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrUserNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return nil, common.ErrEmailAlreadyRegistered
	case err != nil:
		return nil, internalError(ctx, s.logger, "update user", err)
	}

	s.logger.Info(ctx, "user updated", "user_id", id, "password_changed", upd.PasswordHash != nil)
	return out, nil
}

// Delete removes the user together with its refresh tokens.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := dbx.Retry(ctx, func(ctx context.Context) error {
		return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, id); err != nil {
				return err
			}
			return s.repomanager.Users(tx).Delete(ctx, id)
		})
	})
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrUserNotFound
	}
	if err != nil {
		return internalError(ctx, s.logger, "delete user", err)
	}

	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}
