// Package auth issues and verifies the service's JWTs and carries the
// authenticated user through request contexts.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClass separates access tokens from refresh tokens. Each class is
// signed with its own secret.
type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims are the registered claims plus the numeric user id and the class.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64      `json:"uid"`
	Type   TokenClass `json:"typ"`
}

// IssuerConfig holds the signing secrets and lifetimes of both token classes.
type IssuerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Issuer signs and verifies HS256 access and refresh tokens.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type Option func(*Issuer)

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer constructs an Issuer. Both secrets are required and must differ.
func NewIssuer(cfg IssuerConfig, opts ...Option) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}

	i := &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
	if i.accessTTL <= 0 {
		i.accessTTL = DefaultAccessTTL
	}
	if i.refreshTTL <= 0 {
		i.refreshTTL = DefaultRefreshTTL
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// IssueAccess signs an access token for userID and returns it with its expiry.
func (i *Issuer) IssueAccess(userID int64) (string, time.Time, error) {
	return i.issue(userID, AccessToken)
}

// IssueRefresh signs a refresh token for userID and returns it with its expiry.
func (i *Issuer) IssueRefresh(userID int64) (string, time.Time, error) {
	return i.issue(userID, RefreshToken)
}

func (i *Issuer) issue(userID int64, class TokenClass) (string, time.Time, error) {
	secret, ttl := i.params(class)
	now := i.now()
	exp := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
		Type:   class,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	// NumericDate has second precision; report what the token actually says.
	return signed, exp.Truncate(time.Second), nil
}

// Verify checks the signature, expiry and class of tokenString. Failures
// are reported as common.ErrTokenMalformed, common.ErrTokenSignatureInvalid
// or common.ErrTokenExpired.
func (i *Issuer) Verify(tokenString string, class TokenClass) (*Claims, error) {
	secret, _ := i.params(class)
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if claims.Type != class {
		return nil, common.ErrTokenSignatureInvalid
	}
	if claims.UserID <= 0 {
		return nil, common.ErrTokenMalformed
	}
	return claims, nil
}

func (i *Issuer) params(class TokenClass) ([]byte, time.Duration) {
	if class == RefreshToken {
		return i.refreshSecret, i.refreshTTL
	}
	return i.accessSecret, i.accessTTL
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrTokenSignatureInvalid
	default:
		return common.ErrTokenMalformed
	}
}
