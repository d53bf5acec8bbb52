package cryptography

import (
	"strings"
	"testing"

	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func cheapArgon() Hasher {
	config := argon2.DefaultConfig()
	config.TimeCost = 1
	config.MemoryCost = 8 * 1024
	config.Parallelism = 1
	return NewArgonHasher(config)
}

func TestArgonHasher(t *testing.T) {
	hasher := cheapArgon()

	hash, err := hasher.HashString("K7QM2XPA")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hash), "$argon2id$"))

	assert.True(t, hasher.VerifyHashData(string(hash), "K7QM2XPA"))
	assert.False(t, hasher.VerifyHashData(string(hash), "K7QM2XPB"))
	assert.False(t, hasher.VerifyHashData("not-a-hash", "K7QM2XPA"))

	again, err := hasher.HashString("K7QM2XPA")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts must differ")
}

func TestAESCipher(t *testing.T) {
	c, err := NewAESCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt([]byte("K7QM2XPA"))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "K7QM2XPA")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "K7QM2XPA", string(plain))

	other, err := c.Encrypt([]byte("K7QM2XPA"))
	require.NoError(t, err)
	assert.NotEqual(t, sealed, other)
}

func TestAESCipherRejectsTampering(t *testing.T) {
	c, err := NewAESCipher(testKey)
	require.NoError(t, err)
	sealed, err := c.Encrypt([]byte("K7QM2XPA"))
	require.NoError(t, err)

	tampered := []byte(sealed)
	if tampered[20] == 'A' {
		tampered[20] = 'B'
	} else {
		tampered[20] = 'A'
	}
	_, err = c.Decrypt(string(tampered))
	assert.Error(t, err)

	_, err = c.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestNewAESCipherValidatesKey(t *testing.T) {
	_, err := NewAESCipher("zz")
	assert.Error(t, err)
	_, err = NewAESCipher("0011")
	assert.Error(t, err)
}
