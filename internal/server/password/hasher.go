// Package password hashes and verifies user passwords.
package password

import (
	"errors"
	"fmt"
)

// ErrTooLong is returned by Hash for inputs bcrypt would silently truncate.
var ErrTooLong = errors.New("password: longer than 72 bytes")

const maxPasswordBytes = 72

// Hasher turns plaintext passwords into storable digests and checks them.
type Hasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. A digest it cannot
	// parse never matches.
	Verify(plaintext, digest string) bool
}

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

type Config struct {
	Algorithm  string
	BcryptCost int
}

// New returns the Hasher selected by cfg.Algorithm. An empty algorithm
// means bcrypt.
func New(cfg Config) (Hasher, error) {
	switch cfg.Algorithm {
	case "", AlgorithmBcrypt:
		var opts []BcryptOption
		if cfg.BcryptCost != 0 {
			opts = append(opts, WithCost(cfg.BcryptCost))
		}
		return NewBcryptHasher(opts...), nil
	case AlgorithmArgon2id:
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("password: unsupported algorithm %q", cfg.Algorithm)
	}
}
