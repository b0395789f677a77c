package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Environment variables recognized by Load. Each overrides the corresponding
// file value; EnvConfigFile names the YAML file itself and is read by the host.
const (
	EnvConfigFile        = "SECURE_ACCESS_CONFIG"
	envEnable2FA         = "SECURE_ACCESS_ENABLE_2FA"
	envSessionTimeout    = "SECURE_ACCESS_SESSION_TIMEOUT"
	envEncryptionEnabled = "SECURE_ACCESS_ENCRYPTION_ENABLED"
	envAccessLevels      = "SECURE_ACCESS_ACCESS_LEVELS"
	envEmailBatchSize    = "SECURE_ACCESS_EMAIL_BATCH_SIZE"
)

// GetEnv returns the environment variable value, or defaultValue when unset.
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool returns current unless the variable is set. A set value must be
// a recognizable boolean; anything else is an error rather than a silent
// fallback.
func getEnvBool(envKey string, current bool) (bool, error) {
	val := os.Getenv(envKey)
	if val == "" {
		return current, nil
	}
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, errors.Wrapf(ErrInvalidConfigValue, "%s must be a boolean, got %q", envKey, val)
}

// getEnvInt returns current unless the variable is set to a valid integer.
func getEnvInt(envKey string, current int) (int, error) {
	val := os.Getenv(envKey)
	if val == "" {
		return current, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfigValue, "%s must be an integer, got %q", envKey, val)
	}
	return i, nil
}

// getEnvStrings returns current unless the variable is set; a set value is
// split on commas with surrounding whitespace trimmed.
func getEnvStrings(envKey string, current []string) []string {
	val := os.Getenv(envKey)
	if val == "" {
		return current
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
