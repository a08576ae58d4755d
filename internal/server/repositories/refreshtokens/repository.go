// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accountd/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh
// tokens. Tokens are addressed by the hash of their string, never by the
// token itself.
type Repository interface {
	// Create stores a new refresh token hash for userID.
	Create(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error

	// Find returns the stored token or common.ErrorNotFound.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete removes a token and returns common.ErrorNotFound if nothing was
	// deleted, which during rotation means another request consumed it first.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteAllForUser revokes every token of the user.
	DeleteAllForUser(ctx context.Context, userID int64) error

	// DeleteExpired removes tokens that expired at or before the given time
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
