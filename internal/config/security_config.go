package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Configuration validation errors.
var (
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Default values for the security section.
const (
	DefaultEnable2FA             = true
	DefaultSessionTimeoutSeconds = 3600
	DefaultEncryptionEnabled     = true
)

// DefaultAccessLevels are the levels recognized when none are configured.
func DefaultAccessLevels() []string {
	return []string{"admin", "user", "guest"}
}

// Security holds the engine's security options. Loaded once at construction
// and immutable thereafter; every component receives its own copy.
type Security struct {
	Enable2FA             bool     `koanf:"enable_2fa"`         // Gates the second-factor step during authentication
	SessionTimeoutSeconds int      `koanf:"session_timeout"`    // TTL applied to every new session
	EncryptionEnabled     bool     `koanf:"encryption_enabled"` // Advisory flag echoed on secured resources, not enforced here
	AccessLevels          []string `koanf:"access_levels"`      // Valid values for a session's access level
}

// DefaultSecurity returns the security section populated with defaults.
func DefaultSecurity() Security {
	return Security{
		Enable2FA:             DefaultEnable2FA,
		SessionTimeoutSeconds: DefaultSessionTimeoutSeconds,
		EncryptionEnabled:     DefaultEncryptionEnabled,
		AccessLevels:          DefaultAccessLevels(),
	}
}

// Validate rejects values that would leave security behavior undefined.
// Constructors must refuse to proceed when this fails.
func (s Security) Validate() error {
	if s.SessionTimeoutSeconds <= 0 {
		return errors.Wrapf(ErrInvalidConfigValue, "security session_timeout must be positive, got %d", s.SessionTimeoutSeconds)
	}
	if len(s.AccessLevels) == 0 {
		return errors.Wrap(ErrInvalidConfigValue, "security access_levels must not be empty")
	}
	for _, level := range s.AccessLevels {
		if strings.TrimSpace(level) == "" {
			return errors.Wrap(ErrInvalidConfigValue, "security access_levels must not contain blank entries")
		}
	}
	if !s.HasAccessLevel("user") {
		return errors.Wrap(ErrInvalidConfigValue, `security access_levels must include "user", the level assigned on login`)
	}
	return nil
}

// HasAccessLevel reports whether level is part of the configured set.
func (s Security) HasAccessLevel(level string) bool {
	for _, l := range s.AccessLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Timeout returns the session TTL as a duration.
func (s Security) Timeout() time.Duration {
	return time.Duration(s.SessionTimeoutSeconds) * time.Second
}

// Snapshot is the immutable configuration echo embedded in audit summaries.
type Snapshot struct {
	Enable2FA             bool     `json:"2fa_enabled"`
	SessionTimeoutSeconds int      `json:"session_timeout"`
	EncryptionEnabled     bool     `json:"encryption_enabled"`
	AccessLevels          []string `json:"access_levels"`
}

// Snapshot copies the section into its audit-facing form.
func (s Security) Snapshot() Snapshot {
	levels := make([]string, len(s.AccessLevels))
	copy(levels, s.AccessLevels)
	return Snapshot{
		Enable2FA:             s.Enable2FA,
		SessionTimeoutSeconds: s.SessionTimeoutSeconds,
		EncryptionEnabled:     s.EncryptionEnabled,
		AccessLevels:          levels,
	}
}
