package applekeys

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultKeysURL = "https://appleid.apple.com/auth/keys"

// ErrKeyNotFound means the key set was fetched but contains no key with the
// requested key id.
var ErrKeyNotFound = errors.New("no matching key id in provider key set")

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Cache fetches Apple's published signing keys and memoizes them by key id.
// Reads are lock-free once a key is populated; concurrent misses for the same
// key id are coalesced into a single fetch.
type Cache struct {
	keysURL string
	client  *http.Client

	group singleflight.Group

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

// NewCache creates a key cache against the given key set endpoint. A nil
// client gets a default one with a 10 second timeout.
func NewCache(keysURL string, client *http.Client) *Cache {
	if keysURL == "" {
		keysURL = DefaultKeysURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Cache{
		keysURL: keysURL,
		client:  client,
		keys:    make(map[string]*rsa.PublicKey),
	}
}

// Key returns the public key for the given key id, fetching the remote key
// set on a cache miss. A key id absent from the remote set as well yields
// ErrKeyNotFound.
func (c *Cache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	c.mu.RUnlock()
	if ok {
		return key, nil
	}

	// Coalesce concurrent fetches for the same kid.
	v, err, _ := c.group.Do(kid, func() (interface{}, error) {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}

		c.mu.RLock()
		key, ok := c.keys[kid]
		c.mu.RUnlock()
		if !ok {
			return nil, ErrKeyNotFound
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*rsa.PublicKey), nil
}

// Refresh refetches the full key set, replacing cached entries. Keys no
// longer published are dropped.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.keysURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build key set request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("key set endpoint returned status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode key set: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}

		pub, err := k.toPublicKey()
		if err != nil {
			return fmt.Errorf("failed to reconstruct key %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()

	return nil
}

func (k jwk) toPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
