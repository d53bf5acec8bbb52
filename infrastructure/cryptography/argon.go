package cryptography

import (
	"facegate.io/infrastructure/logger"
	"github.com/matthewhartstonge/argon2"
)

type argonHasher struct {
	config argon2.Config
}

func NewArgonHasher(config argon2.Config) Hasher {
	return &argonHasher{config: config}
}

func (ah *argonHasher) HashString(data string) ([]byte, error) {
	raw, err := ah.config.Hash([]byte(data), nil)
	if err != nil {
		logger.Error("argon - error while hashing data", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, err
	}

	return raw.Encode(), nil
}

// VerifyHashData compares in constant time. Parameters are read from the
// encoded hash, so hashes made with an older config still verify.
func (ah *argonHasher) VerifyHashData(hash string, data string) bool {
	raw, err := argon2.Decode([]byte(hash))
	if err != nil {
		logger.Error("argon - could not decode hash", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return false
	}
	ok, err := raw.Verify([]byte(data))
	if err != nil {
		logger.Error("argon - error while verifying data", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		ok = false
	}

	return ok
}
