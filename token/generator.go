package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

const (
	sessionTokenBytes   = 32      // 256 bits of entropy per session token
	verificationCodeMax = 1000000 // six decimal digits, 000000-999999
)

// Generator produces the unguessable strings the engine hands out: bearer
// session tokens and short one-time verification codes. It is stateless and
// safe for concurrent use; both methods only consume the crypto/rand source.
type Generator struct{}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// NewSessionToken returns a URL-safe token carrying 256 bits of entropy.
// Collision probability is negligible at this size, so no uniqueness
// bookkeeping is kept anywhere.
func (g *Generator) NewSessionToken() (string, error) {
	tokenBytes := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "Generator.NewSessionToken rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}

// NewVerificationCode returns a zero-padded six-digit decimal code uniformly
// distributed over 000000-999999.
func (g *Generator) NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(verificationCodeMax))
	if err != nil {
		return "", errors.Wrap(err, "Generator.NewVerificationCode rand.Int")
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
