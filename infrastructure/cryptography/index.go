package cryptography

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/matthewhartstonge/argon2"
)

var CryptoHasher Hasher = NewArgonHasher(argon2.DefaultConfig())

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// AESCipher seals small secrets (backup codes) with AES-GCM. Output is
// base64url(nonce || ciphertext || tag).
type AESCipher struct {
	aead cipher.AEAD
}

// NewAESCipher takes a hex encoded 16, 24 or 32 byte key.
func NewAESCipher(hexKey string) (*AESCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}
	return &AESCipher{aead: aead}, nil
}

func (c *AESCipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

func (c *AESCipher) Decrypt(encoded string) ([]byte, error) {
	sealed, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 input: %w", err)
	}
	if len(sealed) < c.aead.NonceSize()+c.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	nonce, body := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	return c.aead.Open(nil, nonce, body, nil)
}
