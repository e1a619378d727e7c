// Package auth provides HMAC-based API key authentication for gRPC services.
package auth

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/keyshift/internal/log"
)

// MetadataKey is the gRPC metadata entry carrying the API key.
const MetadataKey = "x-api-key"

type contextKey string

const clientKey = contextKey("client")

// Queries is the subset of *db.Queries authentication needs.
type Queries interface {
	Get(ctx context.Context, name string, dest any, args ...any) error
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// Client identifies the caller behind an authenticated key.
type Client struct {
	KeyID string
	Name  string
}

// Authenticator validates API keys against their stored HMAC.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	logger  log.Logger
}

func NewAuthenticator(secrets map[string][]byte, queries Queries, logger log.Logger) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		logger:  log.NewLogger(logger).WithFields(log.Fields{log.ModuleField: "auth"}),
	}
}

// Authenticate resolves apiKey to its Client.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (*Client, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return nil, err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return nil, ErrUnknownKey
	}
	hash := hex.EncodeToString(ComputeHMAC(secret, apiKey))

	var row struct {
		APIKeyID   string       `db:"api_key_id"`
		Name       string       `db:"name"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}
	err = a.queries.Get(ctx, "get-api-key-by-hash", &row, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if row.RevokedAt.Valid {
		return nil, ErrKeyRevoked
	}

	// Throttled to one write per minute per key
	if shouldUpdateLastUsed(row.LastUsedAt) {
		if _, err := a.queries.Exec(ctx, "update-last-used", time.Now().UTC(), row.APIKeyID); err != nil {
			a.logger.Warn(err, "failed to record api key use", log.Fields{"api_key_id": row.APIKeyID})
		}
	}

	return &Client{KeyID: row.APIKeyID, Name: row.Name}, nil
}

func shouldUpdateLastUsed(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return time.Since(lastUsed.Time) > time.Minute
}

// UnaryInterceptor authenticates every unary call and stores the Client in
// the handler's context.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get(MetadataKey)
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		client, err := a.Authenticate(ctx, apiKeys[0])
		switch {
		case err == nil:
		case errors.Is(err, ErrKeyRevoked):
			return nil, status.Error(codes.PermissionDenied, err.Error())
		case errors.Is(err, ErrBackend):
			a.logger.Error(err, "authentication failed", log.Fields{"method": info.FullMethod})
			return nil, status.Error(codes.Unavailable, ErrBackend.Error())
		default:
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(context.WithValue(ctx, clientKey, client), req)
	}
}

// ClientFromContext returns the authenticated caller, or nil when the
// request was not authenticated.
func ClientFromContext(ctx context.Context) *Client {
	client, _ := ctx.Value(clientKey).(*Client)
	return client
}
