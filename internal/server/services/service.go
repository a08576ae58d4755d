// Package services contains the server-side business logic: AuthService for
// registration, login and refresh-token rotation, and UserService for the
// user directory.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/password"
	"github.com/dmitrijs2005/accountd/internal/server/validation"
)

// NormalizeEmail trims and lower-cases an address. Every lookup and write
// goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// internalError logs err and returns common.ErrorInternal with err's text.
// Store sentinels in err are not matchable through the result.
func internalError(ctx context.Context, l logging.Logger, op string, err error) error {
	l.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}

func hashPassword(h password.Hasher, plaintext string) (string, error) {
	digest, err := h.Hash(plaintext)
	if errors.Is(err, password.ErrTooLong) {
		return "", validation.New("password", "must be at most 72 bytes")
	}
	return digest, err
}
