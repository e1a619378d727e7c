package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyPrefix and KeyVersion open every API key: ks-v1-<secret_id>-<random>.
const (
	KeyPrefix  = "ks"
	KeyVersion = "v1"

	secretIDLen   = 32 // UUIDv7 without hyphens
	randomDataLen = 64 // 256 bits, hex
)

// ParseAPIKey extracts secret_id and random_data from an API key.
// Returns ErrInvalidKeyFormat if the key is not ks-v1-<32 hex>-<64 hex>.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != KeyPrefix || parts[1] != KeyVersion {
		return "", "", ErrInvalidKeyFormat
	}

	secretID, randomData = parts[2], parts[3]
	if len(secretID) != secretIDLen || len(randomData) != randomDataLen {
		return "", "", ErrInvalidKeyFormat
	}
	if !isLowerHex(secretID) || !isLowerHex(randomData) {
		return "", "", ErrInvalidKeyFormat
	}
	return secretID, randomData, nil
}

// FormatAPIKey assembles an API key from its components.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("%s-%s-%s-%s", KeyPrefix, KeyVersion, secretID, randomData)
}

// GenerateAPIKey creates a new key bound to secretID with 256 random bits.
func GenerateAPIKey(secretID string) (string, error) {
	if len(secretID) != secretIDLen || !isLowerHex(secretID) {
		return "", ErrInvalidKeyFormat
	}
	buf := make([]byte, randomDataLen/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return FormatAPIKey(secretID, hex.EncodeToString(buf)), nil
}

// ComputeHMAC computes the HMAC-SHA256 of apiKey under secret.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// VerifyHMAC compares two signatures in constant time.
func VerifyHMAC(expectedHash, computedHash []byte) bool {
	return hmac.Equal(expectedHash, computedHash)
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
