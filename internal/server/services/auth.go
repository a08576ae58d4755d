package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/cryptox"
	"github.com/dmitrijs2005/accountd/internal/dbx"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/password"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	User *models.User `json:"user"`
	TokenPair
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Age      int
	Password string
}

// SeedUser is a demo account created at startup.
type SeedUser = RegisterInput

// AuthService registers users, checks credentials and rotates refresh
// tokens. Only hashes of refresh tokens reach the store.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      password.Hasher
	issuer      *auth.Issuer
	logger      logging.Logger
	now         func() time.Time

	// dummyHash is verified against when the email is unknown so that both
	// login failures cost the same.
	dummyHash string
}

// NewAuthService constructs an AuthService. It fails if the hasher cannot produce the dummy digest.
func NewAuthService(m repomanager.RepositoryManager, h password.Hasher, i *auth.Issuer, l logging.Logger) (*AuthService, error) {
	filler, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := h.Hash(filler)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{
		repomanager: m,
		hasher:      h,
		issuer:      i,
		logger:      l.With("module", "auth_service"),
		now:         time.Now,
		dummyHash:   dummy,
	}, nil
}

// Register creates the account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(in.Email)

	_, err := dbx.RetryValue(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.repomanager.Conn()).GetByEmail(ctx, email)
	})
	switch {
	case err == nil:
		return nil, common.ErrEmailAlreadyRegistered
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internalError(ctx, s.logger, "lookup user", err)
	}

	digest, err := hashPassword(s.hasher, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		return nil, internalError(ctx, s.logger, "hash password", err)
	}

	var result *AuthResult
	err = dbx.Retry(ctx, func(ctx context.Context) error {
		return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			u, err := s.repomanager.Users(tx).Create(ctx, &models.User{
				Name:         in.Name,
				Email:        email,
				Age:          in.Age,
				PasswordHash: digest,
			})
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrEmailAlreadyRegistered
			}
			if err != nil {
				return err
			}

			pair, err := s.issuePair(ctx, tx, u.ID)
			if err != nil {
				return err
			}
			result = &AuthResult{User: u, TokenPair: *pair}
			return nil
		})
	})
	if errors.Is(err, common.ErrEmailAlreadyRegistered) {
		return nil, err
	}
	if err != nil {
		return nil, internalError(ctx, s.logger, "register", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", result.User.ID)
	return result, nil
}

// Login checks credentials. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	u, err := dbx.RetryValue(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.repomanager.Conn()).GetByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(plaintext, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, internalError(ctx, s.logger, "lookup user", err)
	}

	if !s.hasher.Verify(plaintext, u.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	var pair *TokenPair
	err = dbx.Retry(ctx, func(ctx context.Context) error {
		return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			var err error
			pair, err = s.issuePair(ctx, tx, u.ID)
			return err
		})
	})
	if err != nil {
		return nil, internalError(ctx, s.logger, "issue tokens", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", u.ID)
	return &AuthResult{User: u, TokenPair: *pair}, nil
}

// RefreshTokens consumes refreshToken and returns a new pair. A token can
// be consumed once; every other outcome is common.ErrInvalidRefreshToken.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrInvalidRefreshToken
	}

	claims, err := s.issuer.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		s.logger.Debug(ctx, "refresh token rejected", "reason", err)
		return nil, common.ErrInvalidRefreshToken
	}
	hash := cryptox.HashToken(refreshToken)

	var pair *TokenPair
	err = dbx.Retry(ctx, func(ctx context.Context) error {
		return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.RefreshTokens(tx)

			stored, err := repo.Find(ctx, hash)
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidRefreshToken
			}
			if err != nil {
				return err
			}
			if stored.UserID != claims.UserID || stored.Expired(s.now()) {
				return common.ErrInvalidRefreshToken
			}

			// zero rows here means a concurrent refresh consumed it first
			if err := repo.Delete(ctx, hash); err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return common.ErrInvalidRefreshToken
				}
				return err
			}

			pair, err = s.issuePair(ctx, tx, claims.UserID)
			return err
		})
	})
	if errors.Is(err, common.ErrInvalidRefreshToken) {
		s.logger.Warn(ctx, "refresh token not accepted", "user_id", claims.UserID)
		return nil, err
	}
	if err != nil {
		return nil, internalError(ctx, s.logger, "rotate refresh token", err)
	}
	return pair, nil
}

// Seed creates the given accounts unless their email is already taken.
func (s *AuthService) Seed(ctx context.Context, seed []SeedUser) error {
	repo := s.repomanager.Users(s.repomanager.Conn())

	for _, su := range seed {
		email := NormalizeEmail(su.Email)

		_, err := repo.GetByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("seed %s: %w", email, err)
		}

		digest, err := s.hasher.Hash(su.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", email, err)
		}
		err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			_, err := s.repomanager.Users(tx).Create(ctx, &models.User{Name: su.Name, Email: email, Age: su.Age, PasswordHash: digest})
			return err
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", email, err)
		}
		s.logger.Info(ctx, "demo user created", "email", email)
	}
	return nil
}

// PurgeExpiredRefreshTokens removes refresh tokens that can no longer be
// used and returns how many were removed.
func (s *AuthService) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	var n int64
	err := dbx.Retry(ctx, func(ctx context.Context) error {
		return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			var err error
			n, err = s.repomanager.RefreshTokens(tx).DeleteExpired(ctx, s.now())
			return err
		})
	})
	return n, err
}

func (s *AuthService) issuePair(ctx context.Context, db dbx.DBTX, userID int64) (*TokenPair, error) {
	access, _, err := s.issuer.IssueAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, expiresAt, err := s.issuer.IssueRefresh(userID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := s.repomanager.RefreshTokens(db).Create(ctx, userID, cryptox.HashToken(refresh), expiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
