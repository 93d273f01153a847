package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewLockToken returns the opaque credential handed out by the lock store.
// 16 random bytes is plenty; the token only needs to be unguessable for the
// lifetime of a lock.
func NewLockToken() (string, error) {
	return GenerateCode(16)
}

// GenerateCode returns n random bytes as lowercase hex.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return hex.EncodeToString(byt), nil
}
