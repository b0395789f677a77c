// Package config provides configuration loading and validation for the
// secure-access engine. Built-in defaults are merged with an optional YAML
// file and environment overrides; environment variables take precedence over
// file values. Loading fails rather than falling back to undefined values for
// security-relevant fields.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Config holds every tunable of the engine and its demo collaborators.
// It is loaded once at construction and treated as immutable afterwards:
// components receive their sections by value.
type Config struct {
	Security Security `koanf:"security"`
	Email    Email    `koanf:"email"`
}

// Email configures the email triage collaborator.
type Email struct {
	BatchSize int `koanf:"batch_size"` // Messages fetched per triage run
}

// DefaultEmailBatchSize is used when no batch size is configured.
const DefaultEmailBatchSize = 10

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Security: DefaultSecurity(),
		Email:    Email{BatchSize: DefaultEmailBatchSize},
	}
}

// Load reads configuration from an optional YAML file and the environment.
// Precedence, lowest to highest: built-in defaults, file values, environment
// variables. A malformed file, a malformed environment value, or a failed
// validation aborts loading with an error.
func Load(configFilePath string) (*Config, error) {
	k := koanf.New(".")

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "config.Load %s", configFilePath)
		}
	}

	cfg := Default()

	// File overrides: only keys present in the file replace defaults, so a
	// false boolean is distinguishable from an absent one.
	if k.Exists("security.enable_2fa") {
		cfg.Security.Enable2FA = k.Bool("security.enable_2fa")
	}
	if k.Exists("security.session_timeout") {
		cfg.Security.SessionTimeoutSeconds = k.Int("security.session_timeout")
	}
	if k.Exists("security.encryption_enabled") {
		cfg.Security.EncryptionEnabled = k.Bool("security.encryption_enabled")
	}
	if k.Exists("security.access_levels") {
		cfg.Security.AccessLevels = k.Strings("security.access_levels")
	}
	if k.Exists("email.batch_size") {
		cfg.Email.BatchSize = k.Int("email.batch_size")
	}

	// Environment overrides.
	var err error
	if cfg.Security.Enable2FA, err = getEnvBool(envEnable2FA, cfg.Security.Enable2FA); err != nil {
		return nil, err
	}
	if cfg.Security.SessionTimeoutSeconds, err = getEnvInt(envSessionTimeout, cfg.Security.SessionTimeoutSeconds); err != nil {
		return nil, err
	}
	if cfg.Security.EncryptionEnabled, err = getEnvBool(envEncryptionEnabled, cfg.Security.EncryptionEnabled); err != nil {
		return nil, err
	}
	cfg.Security.AccessLevels = getEnvStrings(envAccessLevels, cfg.Security.AccessLevels)
	if cfg.Email.BatchSize, err = getEnvInt(envEmailBatchSize, cfg.Email.BatchSize); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Security.Validate(); err != nil {
		return err
	}
	return c.Email.Validate()
}

// Validate checks the email section.
func (e Email) Validate() error {
	if e.BatchSize <= 0 {
		return errors.Wrapf(ErrInvalidConfigValue, "email batch_size must be positive, got %d", e.BatchSize)
	}
	return nil
}
