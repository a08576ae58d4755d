package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashers() map[string]Hasher {
	return map[string]Hasher{
		"bcrypt":   NewBcryptHasher(WithCost(bcrypt.MinCost)),
		"argon2id": NewArgon2Hasher(),
	}
}

func TestHasher_RoundTrip(t *testing.T) {
	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			digest, err := h.Hash("secretpw")
			require.NoError(t, err)
			assert.NotContains(t, digest, "secretpw")

			assert.True(t, h.Verify("secretpw", digest))
			assert.False(t, h.Verify("secretpx", digest))
			assert.False(t, h.Verify("", digest))
		})
	}
}

func TestHasher_FreshSaltPerCall(t *testing.T) {
	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			a, err := h.Hash("same-input")
			require.NoError(t, err)
			b, err := h.Hash("same-input")
			require.NoError(t, err)

			assert.NotEqual(t, a, b)
			assert.True(t, h.Verify("same-input", a))
			assert.True(t, h.Verify("same-input", b))
		})
	}
}

func TestHasher_RejectsOverlongInput(t *testing.T) {
	long := strings.Repeat("a", 73)
	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			_, err := h.Hash(long)
			assert.ErrorIs(t, err, ErrTooLong)

			_, err = h.Hash(strings.Repeat("a", 72))
			assert.NoError(t, err)
		})
	}
}

func TestHasher_MalformedDigestFailsClosed(t *testing.T) {
	digests := []string{
		"",
		"garbage",
		"$2a$10$short",
		"$argon2id$v=19$m=65536,t=1,p=4$%%%$%%%",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",
	}
	for name, h := range hashers() {
		for _, d := range digests {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("secretpw", d), "%s accepted %q", name, d)
			})
		}
	}
}

func TestArgon2Hasher_PHCFormat(t *testing.T) {
	digest, err := NewArgon2Hasher().Hash("secretpw")
	require.NoError(t, err)

	parts := strings.Split(digest, "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "argon2id", parts[1])
	assert.Equal(t, "v=19", parts[2])
	assert.Equal(t, "m=65536,t=1,p=4", parts[3])
}

func TestBcryptHasher_Cost(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher().Cost())
	assert.Equal(t, 12, NewBcryptHasher(WithCost(12)).Cost())
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(WithCost(1)).Cost())
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(WithCost(99)).Cost())

	digest, err := NewBcryptHasher(WithCost(bcrypt.MinCost)).Hash("secretpw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestNew(t *testing.T) {
	h, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &BcryptHasher{}, h)

	h, err = New(Config{Algorithm: AlgorithmBcrypt, BcryptCost: 11})
	require.NoError(t, err)
	assert.Equal(t, 11, h.(*BcryptHasher).Cost())

	h, err = New(Config{Algorithm: AlgorithmArgon2id})
	require.NoError(t, err)
	assert.IsType(t, &Argon2Hasher{}, h)

	_, err = New(Config{Algorithm: "md5"})
	assert.Error(t, err)
}

func TestArgon2Hasher_RejectsExcessiveCost(t *testing.T) {
	h := NewArgon2Hasher()
	digest, err := h.Hash("secretpw")
	require.NoError(t, err)

	parts := strings.Split(digest, "$")
	require.Len(t, parts, 6)

	for _, params := range []string{
		"m=4294967295,t=1,p=4",
		"m=65536,t=4294967295,p=4",
		"m=65536,t=1,p=255",
		"m=262145,t=1,p=4",
	} {
		tampered := strings.Join([]string{"", parts[1], parts[2], params, parts[4], parts[5]}, "$")
		assert.False(t, h.Verify("secretpw", tampered), params)
	}

	assert.True(t, h.Verify("secretpw", digest))
}
