package security

import (
	"golang.org/x/crypto/bcrypt"
)

// VerifyStaffKey checks a presented API key against the configured bcrypt
// hash. Staff and kiosk integrations authenticate with this key instead of a
// customer auth record; an empty hash disables the mechanism entirely.
func VerifyStaffKey(hash, presented string) bool {
	if hash == "" || presented == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
}
