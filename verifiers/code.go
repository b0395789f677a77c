package verifiers

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-secure-access/auth"
)

var _ auth.SecondFactorVerifier = (*Codes)(nil)

// CodeSource produces the one-time codes handed to users out of band.
type CodeSource interface {
	NewVerificationCode() (string, error)
}

// DefaultCodeTTL bounds how long an issued code stays usable.
const DefaultCodeTTL = 5 * time.Minute

// Codes issues single-use verification codes and answers the engine's
// second-factor check. One code is outstanding per username at a time;
// expiry is checked lazily when a code is presented, and a matched or
// expired code is removed in the same call.
type Codes struct {
	source  CodeSource
	lock    sync.Mutex
	issued  map[string]issuedCode
	ttl     time.Duration
	nowTime func() time.Time
	logger  zerolog.Logger
}

type issuedCode struct {
	code      string
	expiresAt time.Time
}

// CodesOption defines a function type to modify the Codes instance.
type CodesOption func(*Codes)

// WithTTL overrides the code lifetime
func WithTTL(ttl time.Duration) CodesOption {
	return func(c *Codes) {
		c.ttl = ttl
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CodesOption {
	return func(c *Codes) {
		c.nowTime = nowFunc
	}
}

// WithLogger sets the logger for issue and verify events
func WithLogger(logger zerolog.Logger) CodesOption {
	return func(c *Codes) {
		c.logger = logger
	}
}

// NewCodes initializes a code verifier drawing from the given source.
func NewCodes(source CodeSource, options ...CodesOption) (*Codes, error) {
	if source == nil {
		return nil, errors.New("[NewCodes] code source is required")
	}

	codes := &Codes{
		source:  source,
		issued:  make(map[string]issuedCode),
		ttl:     DefaultCodeTTL,
		nowTime: time.Now,
		logger:  zerolog.Nop(),
	}

	for _, opt := range options {
		opt(codes)
	}

	return codes, nil
}

// Issue draws a fresh code for username, replacing any outstanding one, and
// returns it for out-of-band delivery. The code itself is never logged.
func (c *Codes) Issue(username string) (string, error) {
	code, err := c.source.NewVerificationCode()
	if err != nil {
		return "", errors.Wrap(err, "Codes.Issue NewVerificationCode")
	}

	expiresAt := c.nowTime().Add(c.ttl)
	c.lock.Lock()
	c.issued[username] = issuedCode{code: code, expiresAt: expiresAt}
	c.lock.Unlock()

	c.logger.Debug().
		Str("username", username).
		Time("expires_at", expiresAt).
		Msg("verification code issued")

	return code, nil
}

// Verify reports whether code matches the outstanding one for username. The
// comparison is constant-time; a match consumes the code, and a code past
// its deadline is dropped on presentation without matching.
func (c *Codes) Verify(_ context.Context, username, code string) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	issued, ok := c.issued[username]
	if !ok {
		return false, nil
	}
	if c.nowTime().After(issued.expiresAt) {
		delete(c.issued, username)
		c.logger.Debug().Str("username", username).Msg("verification code expired")
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(issued.code), []byte(code)) != 1 {
		return false, nil
	}

	delete(c.issued, username)
	return true, nil
}
