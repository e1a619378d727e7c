package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

const (
	testSecret1 = "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
	testSecret2 = "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
)

func TestHMACSecrets(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 0 {
			t.Errorf("expected 0 secrets, got %d", len(secrets))
		}
	})

	t.Run("single secret", func(t *testing.T) {
		t.Setenv("KS_HMAC_SECRET", testSecret1)

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Errorf("secret_id not found in map")
		}
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		t.Setenv("KS_HMAC_SECRET_1", testSecret1)
		t.Setenv("KS_HMAC_SECRET_2", testSecret2)

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 2 {
			t.Errorf("expected 2 secrets, got %d", len(secrets))
		}
	})

	t.Run("numbering stops at gap", func(t *testing.T) {
		t.Setenv("KS_HMAC_SECRET_1", testSecret1)
		t.Setenv("KS_HMAC_SECRET_3", testSecret2)

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Setenv("KS_HMAC_SECRET", "invalid_format")

		if _, err := HMACSecrets(); err == nil {
			t.Error("expected error for invalid format")
		}
	})

	t.Run("duplicate secret_id between single and numbered", func(t *testing.T) {
		t.Setenv("KS_HMAC_SECRET", testSecret1)
		t.Setenv("KS_HMAC_SECRET_1", "0123456789abcdef0123456789abcdef:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		if _, err := HMACSecrets(); err == nil {
			t.Error("expected error for duplicate secret_id")
		}
	})
}

func TestParseHMACSecretWithID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid format", testSecret1, false},
		{"surrounding whitespace", "  " + testSecret1 + "\n", false},
		{"missing colon", "0123456789abcdef0123456789abcdef", true},
		{"short secret_id", "tooshort:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w", true},
		{"non-hex secret_id", "0123456789abcdefGHIJKLMNOPQRSTUV:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w", true},
		{"invalid base64", "0123456789abcdef0123456789abcdef:not-valid-base64!!!", true},
		{"secret too short", "0123456789abcdef0123456789abcdef:c2hvcnQ=", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, secret, err := ParseHMACSecretWithID(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHMACSecretWithID failed: %v", err)
			}
			if id != "0123456789abcdef0123456789abcdef" {
				t.Errorf("unexpected secret_id: %s", id)
			}
			if len(secret) < 32 {
				t.Errorf("secret too short: %d bytes", len(secret))
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load("", nil)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
		}
		if cfg.Server.Port != 50051 {
			t.Errorf("expected port 50051, got %d", cfg.Server.Port)
		}
		if cfg.Server.MaxConnections != 1000 {
			t.Errorf("expected max_connections 1000, got %d", cfg.Server.MaxConnections)
		}
		if cfg.Server.RequestTimeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.Server.RequestTimeout)
		}
		if cfg.DB.URL != "sqlite://keyshift.db" {
			t.Errorf("expected default db url, got %s", cfg.DB.URL)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
			t.Errorf("expected info/text logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
		}
		if cfg.Transform.CopySource {
			t.Error("expected copy_source false by default")
		}
		if cfg.Server.Addr() != "0.0.0.0:50051" {
			t.Errorf("unexpected Addr(): %s", cfg.Server.Addr())
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("KS_SERVER_PORT", "9999")
		t.Setenv("KS_SERVER_HOST", "127.0.0.1")
		t.Setenv("KS_TRANSFORM_COPY_SOURCE", "true")

		cfg, err := Load("", nil)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Server.Port)
		}
		if cfg.Server.Host != "127.0.0.1" {
			t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
		}
		if !cfg.Transform.CopySource {
			t.Error("expected copy_source true from environment")
		}
	})

	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv("KS_LOG_LEVEL", "warn")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("log-level", "info", "")
		if err := flags.Parse([]string{"--log-level=debug"}); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load("", flags)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("expected flag level debug, got %s", cfg.Log.Level)
		}
	})

	t.Run("invalid port range", func(t *testing.T) {
		t.Setenv("KS_SERVER_PORT", "70000")

		if _, err := Load("", nil); err == nil {
			t.Error("expected error for port > 65535")
		}
	})

	t.Run("invalid negative values", func(t *testing.T) {
		t.Setenv("KS_SERVER_MAX_CONNECTIONS", "-1")

		if _, err := Load("", nil); err == nil {
			t.Error("expected error for negative max_connections")
		}
	})

	t.Run("invalid log format", func(t *testing.T) {
		t.Setenv("KS_LOG_FORMAT", "xml")

		if _, err := Load("", nil); err == nil {
			t.Error("expected error for unknown log format")
		}
	})

	t.Run("secret in environment is not a config file secret", func(t *testing.T) {
		t.Setenv("KS_HMAC_SECRET", testSecret1)

		if _, err := Load("", nil); err != nil {
			t.Errorf("Load failed with secret in environment: %v", err)
		}
	})
}
