// Package config provides configuration management for keyshift commands.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// EnvPrefix namespaces every environment variable keyshift reads.
const EnvPrefix = "KS"

// Config is the full keyshift configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Log       LogConfig
	Transform TransformConfig
}

// ServerConfig holds configuration for the gRPC transform service.
type ServerConfig struct {
	Host           string
	Port           int
	MaxConnections int
	RequestTimeout time.Duration
	MaxBatchSize   int
	// RequireAuth enables the API key interceptor. Requires at least one
	// HMAC secret in the environment.
	RequireAuth bool
}

// DBConfig locates the mapping store.
type DBConfig struct {
	URL string
}

// LogConfig selects logger verbosity and output format ("json" or "text").
type LogConfig struct {
	Level  string
	Format string
}

// TransformConfig holds engine defaults applied when a request does not
// say otherwise.
type TransformConfig struct {
	CopySource bool
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50051,
			MaxConnections: 1000,
			RequestTimeout: 30 * time.Second,
			MaxBatchSize:   1000,
			RequireAuth:    false,
		},
		DB:  DBConfig{URL: "sqlite://keyshift.db"},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports KS_HMAC_SECRET (single) and KS_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check %s_HMAC_SECRET and %s_HMAC_SECRET_* for conflicts)", secretID, EnvPrefix, EnvPrefix)
		}
		secrets[secretID] = decoded
		return nil
	}

	single := EnvPrefix + "_HMAC_SECRET"
	if val := os.Getenv(single); val != "" {
		if err := add(single, val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets stop at the first gap
	for i := 1; ; i++ {
		key := fmt.Sprintf("%s_HMAC_SECRET_%d", EnvPrefix, i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 lowercase hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	id, encoded, ok := strings.Cut(strings.TrimSpace(envValue), ":")
	if !ok {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	if len(id) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}
	if !isLowerHex(id) {
		return "", nil, fmt.Errorf("secret_id must be hex chars only")
	}

	secret, err = ParseHMACSecret(encoded)
	if err != nil {
		return "", nil, err
	}
	return id, secret, nil
}

// ParseHMACSecret decodes a base64 secret of at least 32 bytes.
func ParseHMACSecret(encoded string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
