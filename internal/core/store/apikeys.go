package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solatis/keyshift/internal/core/auth"
)

// APIKeyStore issues and revokes API keys. Only the HMAC of a key is
// stored; the plaintext key is returned once from Create.
type APIKeyStore struct {
	queries Queries
	secrets map[string][]byte
	now     func() time.Time
}

func NewAPIKeyStore(queries Queries, secrets map[string][]byte) *APIKeyStore {
	return &APIKeyStore{
		queries: queries,
		secrets: secrets,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// IssuedKey is a freshly created API key.
type IssuedKey struct {
	ID     string
	Name   string
	APIKey string
}

// Create generates a key signed with the secret identified by secretID.
func (s *APIKeyStore) Create(ctx context.Context, secretID, name string) (*IssuedKey, error) {
	if name == "" {
		return nil, fmt.Errorf("api key name is required")
	}
	secret, ok := s.secrets[secretID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", auth.ErrUnknownKey, secretID)
	}

	apiKey, err := auth.GenerateAPIKey(secretID)
	if err != nil {
		return nil, err
	}
	hash := hex.EncodeToString(auth.ComputeHMAC(secret, apiKey))
	id := uuid.Must(uuid.NewV7()).String()

	if _, err := s.queries.Exec(ctx, "create-api-key", id, secretID, hash, name, s.now()); err != nil {
		return nil, fmt.Errorf("failed to store api key: %w", err)
	}
	return &IssuedKey{ID: id, Name: name, APIKey: apiKey}, nil
}

// Revoke marks the key as revoked. Revoking twice is an error.
func (s *APIKeyStore) Revoke(ctx context.Context, id string) error {
	res, err := s.queries.Exec(ctx, "revoke-api-key", s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("api key %s not found or already revoked", id)
	}
	return nil
}
