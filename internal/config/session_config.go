package config

import (
	"crypto/sha256"
	"os"
)

const (
	folderVar   = "FOLDER"
	hashKeyVar  = "SESSION_HASH_KEY"
	blockKeyVar = "SESSION_BLOCK_KEY"
)

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetDataFolder() string {
	return GetEnv(folderVar, "./data")
}

// GetSessionHashKey returns the HMAC key used to authenticate the persisted
// session file. Derived from SESSION_HASH_KEY, falling back to a fixed
// development key so local runs work without configuration.
func (Session) GetSessionHashKey() []byte {
	return derivedKey(GetEnv(hashKeyVar, "civilshq-dev-session-hash-key"))
}

// GetSessionBlockKey returns the encryption key for the persisted session
// file, or nil when SESSION_BLOCK_KEY is unset (HMAC only).
func (Session) GetSessionBlockKey() []byte {
	raw := os.Getenv(blockKeyVar)
	if raw == "" {
		return nil
	}
	return derivedKey(raw)
}

// derivedKey stretches a passphrase to the 32-byte length securecookie wants.
func derivedKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}
