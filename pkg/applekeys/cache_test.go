package applekeys

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyServer(t *testing.T, keys map[string]*rsa.PublicKey, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}

		set := jwkSet{}
		for kid, pub := range keys {
			set.Keys = append(set.Keys, jwk{
				Kty: "RSA",
				Kid: kid,
				Use: "sig",
				Alg: "RS256",
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
}

func TestKeyFetchesOnMiss(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := testKeyServer(t, map[string]*rsa.PublicKey{"key-1": &priv.PublicKey}, nil)
	defer srv.Close()

	cache := NewCache(srv.URL, srv.Client())

	key, err := cache.Key(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, 0, priv.PublicKey.N.Cmp(key.N))
	assert.Equal(t, priv.PublicKey.E, key.E)
}

func TestKeyCachesAcrossCalls(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var hits atomic.Int64
	srv := testKeyServer(t, map[string]*rsa.PublicKey{"key-1": &priv.PublicKey}, &hits)
	defer srv.Close()

	cache := NewCache(srv.URL, srv.Client())

	for i := 0; i < 5; i++ {
		_, err := cache.Key(context.Background(), "key-1")
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), hits.Load())
}

func TestKeyUnknownKid(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := testKeyServer(t, map[string]*rsa.PublicKey{"key-1": &priv.PublicKey}, nil)
	defer srv.Close()

	cache := NewCache(srv.URL, srv.Client())

	_, err = cache.Key(context.Background(), "no-such-kid")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyEndpointUnreachable(t *testing.T) {
	srv := testKeyServer(t, nil, nil)
	srv.Close()

	cache := NewCache(srv.URL, nil)

	_, err := cache.Key(context.Background(), "key-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
}

func TestConcurrentMissesAreCoalesced(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var hits atomic.Int64
	srv := testKeyServer(t, map[string]*rsa.PublicKey{"key-1": &priv.PublicKey}, &hits)
	defer srv.Close()

	cache := NewCache(srv.URL, srv.Client())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := cache.Key(context.Background(), "key-1")
			assert.NoError(t, err)
			assert.NotNil(t, key)
		}()
	}
	wg.Wait()

	// Concurrent first-time lookups for the same kid share one fetch.
	assert.Equal(t, int64(1), hits.Load())
}

func TestRefreshReplacesKeySet(t *testing.T) {
	privA, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privB, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var mu sync.Mutex
	current := map[string]*rsa.PublicKey{"key-a": &privA.PublicKey}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys := current
		mu.Unlock()

		set := jwkSet{}
		for kid, pub := range keys {
			set.Keys = append(set.Keys, jwk{
				Kty: "RSA",
				Kid: kid,
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			})
		}
		_ = json.NewEncoder(w).Encode(set)
	}))
	defer srv.Close()

	cache := NewCache(srv.URL, srv.Client())

	_, err = cache.Key(context.Background(), "key-a")
	require.NoError(t, err)

	// Rotate the published set and refresh.
	mu.Lock()
	current = map[string]*rsa.PublicKey{"key-b": &privB.PublicKey}
	mu.Unlock()

	require.NoError(t, cache.Refresh(context.Background()))

	_, err = cache.Key(context.Background(), "key-b")
	assert.NoError(t, err)
}
