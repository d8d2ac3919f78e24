package documents

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxHashedPassphraseLen longest passphrase bcrypt accepts
const maxHashedPassphraseLen = 72

// passphraseSealer turns a private document passphrase into its stored form
type passphraseSealer struct {
	hash bool
	cost int
}

// seal stored form of a passphrase
func (p passphraseSealer) seal(plain string) (string, error) {
	if !p.hash {
		return plain, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passphrase [%w]", err)
	}
	return string(hashed), nil
}

// passphraseMatches compare an offered passphrase with a stored one
//
// Stored values which are not bcrypt hashes are plain passphrases.
func passphraseMatches(stored, offered string) bool {
	if stored == "" {
		return false
	}
	if _, err := bcrypt.Cost([]byte(stored)); err == nil {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(offered)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(offered)) == 1
}
