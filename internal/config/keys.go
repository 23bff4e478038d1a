package config

import (
	"errors"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	apiKeyEnv    = "ANTHROPIC_API_KEY"
	apiKeyPrefix = "sk-ant-"
	minKeyLength = 20
)

var (
	// ErrNoAPIKey is returned when no API key can be found.
	ErrNoAPIKey = errors.New("no Anthropic API key configured")
	// ErrInvalidAPIKey is returned by ValidateAPIKey for malformed keys.
	ErrInvalidAPIKey = errors.New("invalid API key format")
	// ErrUnknownKey is returned by Set for keys Flatten does not produce.
	ErrUnknownKey = errors.New("unknown configuration key")
)

// KeySource says where the credentials for the Anthropic API come from.
type KeySource string

const (
	KeySourceEnv     KeySource = "environment"
	KeySourceConfig  KeySource = "config_file"
	KeySourceBedrock KeySource = "aws_bedrock"
	KeySourceNone    KeySource = "none"
)

// GetAPIKey returns the API key, preferring the environment over the
// config file.
func GetAPIKey(cfg *Config) (string, error) {
	if key := os.Getenv(apiKeyEnv); key != "" {
		return key, nil
	}
	if key := configuredKey(cfg); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

// GetAPIKeySource reports which credential source GetAPIKey or the Bedrock
// client would use. Bedrock counts only when no key is available.
func GetAPIKeySource(cfg *Config) KeySource {
	switch {
	case os.Getenv(apiKeyEnv) != "":
		return KeySourceEnv
	case configuredKey(cfg) != "":
		return KeySourceConfig
	case cfg != nil && cfg.Anthropic.UseBedrock:
		return KeySourceBedrock
	default:
		return KeySourceNone
	}
}

// ValidateAPIKey checks the key's shape. It never contacts the API.
func ValidateAPIKey(key string) error {
	switch {
	case key == "":
		return ErrNoAPIKey
	case !strings.HasPrefix(key, apiKeyPrefix):
		return goerr.Wrap(ErrInvalidAPIKey, "missing prefix", goerr.V("expected", apiKeyPrefix))
	case len(key) < minKeyLength:
		return goerr.Wrap(ErrInvalidAPIKey, "key too short", goerr.V("length", len(key)))
	}
	return nil
}

// MaskAPIKey keeps the prefix and the last four characters of key.
func MaskAPIKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 15:
		return "***"
	}
	return key[:len(apiKeyPrefix)] + "..." + key[len(key)-4:]
}

// configuredKey expands ${VAR} references in the config file key. An
// unresolved reference counts as unset.
func configuredKey(cfg *Config) string {
	if cfg == nil || cfg.Anthropic.APIKey == "" {
		return ""
	}
	key := os.ExpandEnv(cfg.Anthropic.APIKey)
	if key == "" || strings.HasPrefix(key, "${") {
		return ""
	}
	return key
}
