package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
)

// minSecretLength is the shortest HS256 secret accepted
const minSecretLength = 32

// secretReader is the part of secretcache.Cache the store uses
type secretReader interface {
	GetSecretString(secretID string) (string, error)
}

// SigningSecretStore reads the HS256 token secret from Secrets Manager through
// a local cache, so warm Lambda invocations do not call the API.
type SigningSecretStore struct {
	cache    secretReader
	secretID string
}

// NewSigningSecretStore creates a store backed by a secretcache.Cache
func NewSigningSecretStore(client *secretsmanager.Client, secretID string) (*SigningSecretStore, error) {
	cache, err := secretcache.New(func(c *secretcache.Cache) {
		c.Client = client
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secret cache: %w", err)
	}
	return &SigningSecretStore{cache: cache, secretID: secretID}, nil
}

// SigningSecret returns the secret bytes. The secret may be stored as a plain
// string or as JSON {"secret": "..."}.
func (s *SigningSecretStore) SigningSecret(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, err := s.cache.GetSecretString(s.secretID)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing secret %s: %w", s.secretID, err)
	}
	return parseSecret(value)
}

func parseSecret(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "{") {
		var payload struct {
			Secret string `json:"secret"`
		}
		if err := json.Unmarshal([]byte(value), &payload); err != nil {
			return nil, fmt.Errorf("failed to parse signing secret: %w", err)
		}
		value = payload.Secret
	}
	if len(value) < minSecretLength {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	return []byte(value), nil
}
