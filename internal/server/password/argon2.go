package password

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/cryptox"
	"golang.org/x/crypto/argon2"
)

// maxCostFactor bounds how far the parameters of a stored digest may exceed
// the hasher's own before Verify refuses to run it.
const maxCostFactor = 4

// Argon2Hasher produces argon2id digests in the PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

// NewArgon2Hasher returns an argon2id hasher with m=64MiB, t=1 and p=4.
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{
		time:    1,
		memory:  64 * 1024,
		threads: 4,
		keyLen:  32,
		saltLen: 16,
	}
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrTooLong
	}
	salt := common.GenerateRandByteArray(h.saltLen)
	key := argon2.IDKey([]byte(plaintext), salt, h.time, h.memory, h.threads, h.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(plaintext, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if memory == 0 || iterations == 0 || threads == 0 {
		return false
	}
	if !h.costAllowed(memory, iterations, threads) {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > int(maxCostFactor*h.keyLen) {
		return false
	}

	got := argon2.IDKey([]byte(plaintext), salt, iterations, memory, threads, uint32(len(want)))
	return cryptox.ConstantTimeEqual(got, want)
}

func (h *Argon2Hasher) costAllowed(memory, iterations uint32, threads uint8) bool {
	return uint64(memory) <= maxCostFactor*uint64(h.memory) &&
		uint64(iterations) <= maxCostFactor*uint64(h.time) &&
		int(threads) <= maxCostFactor*int(h.threads)
}
