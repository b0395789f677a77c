// Package verifiers supplies the credential and second-factor collaborators
// the authentication engine delegates to. These are host-side
// implementations: the engine itself never holds a secret, and nothing here
// ever accepts without a real comparison.
package verifiers

import (
	"context"
	"fmt"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-secure-access/auth"
	"github.com/jrsteele09/go-secure-access/sessions"
)

var _ auth.CredentialVerifier = (*Credentials)(nil)

// Credentials is an in-memory username → bcrypt-hash registry. It answers the
// engine's credential check with an actual hash comparison; unknown users and
// wrong secrets are plain rejections, never errors.
type Credentials struct {
	lock    sync.RWMutex
	records map[string]credentialRecord
}

type credentialRecord struct {
	secretHash  string
	accessLevel sessions.AccessLevel
}

// NewCredentials creates an empty registry.
func NewCredentials() *Credentials {
	return &Credentials{records: make(map[string]credentialRecord)}
}

// Register stores a bcrypt hash of the secret for username together with the
// access level suggested on login. An existing registration is replaced.
func (c *Credentials) Register(username, secret string, level sessions.AccessLevel) error {
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}
	if err := ValidateSecretStrength(secret); err != nil {
		return err
	}

	hash, err := HashSecret(secret)
	if err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.records[username] = credentialRecord{secretHash: hash, accessLevel: level}
	return nil
}

// Verify checks the secret against the registered hash for username and
// returns the registered access level on success.
func (c *Credentials) Verify(_ context.Context, username, secret string) (bool, sessions.AccessLevel, error) {
	c.lock.RLock()
	record, ok := c.records[username]
	c.lock.RUnlock()

	if !ok {
		return false, "", nil
	}
	if !CheckSecretHash(secret, record.secretHash) {
		return false, "", nil
	}
	return true, record.accessLevel, nil
}

// ValidateSecretStrength checks if a secret meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidateSecretStrength(secret string) error {
	if len(secret) < 8 {
		return fmt.Errorf("secret must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range secret {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("secret must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("secret must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("secret must contain at least one number")
	}

	return nil
}

// HashSecret returns the bcrypt hash of a secret.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckSecretHash reports whether the secret matches the bcrypt hash.
func CheckSecretHash(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}
