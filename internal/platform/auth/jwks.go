package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/jwk"
)

const defaultJWKSTTL = 15 * time.Minute

// JWKSCache holds an issuer's public key set and refreshes it when stale or
// when a token names a key id it has not seen.
type JWKSCache struct {
	url   string
	ttl   time.Duration
	fetch func(ctx context.Context, url string) (jwk.Set, error)
	now   func() time.Time

	mu        sync.RWMutex
	set       jwk.Set
	fetchedAt time.Time
}

// NewJWKSCache creates a cache for the key set published at url
func NewJWKSCache(url string) *JWKSCache {
	return &JWKSCache{
		url: url,
		ttl: defaultJWKSTTL,
		fetch: func(ctx context.Context, url string) (jwk.Set, error) {
			return jwk.Fetch(ctx, url)
		},
		now: time.Now,
	}
}

// Key returns the raw public key for kid
func (c *JWKSCache) Key(ctx context.Context, kid string) (interface{}, error) {
	set, fresh := c.current()
	if set != nil {
		if key, ok := set.LookupKeyID(kid); ok && fresh {
			return rawKey(key)
		}
	}

	set, err := c.refresh(ctx)
	if err != nil {
		return nil, err
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("key %q not found in key set", kid)
	}
	return rawKey(key)
}

func (c *JWKSCache) current() (jwk.Set, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.set, c.now().Sub(c.fetchedAt) < c.ttl
}

func (c *JWKSCache) refresh(ctx context.Context) (jwk.Set, error) {
	set, err := c.fetch(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key set: %w", err)
	}

	c.mu.Lock()
	c.set = set
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return set, nil
}

func rawKey(key jwk.Key) (interface{}, error) {
	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode key %q: %w", key.KeyID(), err)
	}
	return raw, nil
}
