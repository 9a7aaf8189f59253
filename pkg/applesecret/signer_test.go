package applesecret

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeECKeyFile(t *testing.T) (string, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "auth_key.p8")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	return path, key
}

func TestSignProducesVerifiableSecret(t *testing.T) {
	path, key := writeECKeyFile(t)

	signer := NewSigner("TEAM123456", "KEY1234567", "com.example.app", path, time.Hour)

	secret, err := signer.Sign()
	require.NoError(t, err)

	token, err := jwt.ParseWithClaims(secret, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(*jwt.RegisteredClaims)
	assert.Equal(t, "TEAM123456", claims.Issuer)
	assert.Equal(t, "com.example.app", claims.Subject)
	assert.Contains(t, claims.Audience, TokenAudience)
	assert.Equal(t, "KEY1234567", token.Header["kid"])

	// Validity stays within Apple's one hour maximum.
	lifetime := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time)
	assert.LessOrEqual(t, lifetime, time.Hour)
}

func TestSignMissingKeyFile(t *testing.T) {
	signer := NewSigner("TEAM123456", "KEY1234567", "com.example.app", "/nonexistent/key.p8", time.Hour)

	_, err := signer.Sign()
	assert.Error(t, err)
}

func TestSignRejectsNonECKey(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rsa_key.p8")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	signer := NewSigner("TEAM123456", "KEY1234567", "com.example.app", path, time.Hour)

	_, err = signer.Sign()
	assert.ErrorIs(t, err, ErrNotECKey)
}

func TestSignRejectsEmptyKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.p8")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	signer := NewSigner("TEAM123456", "KEY1234567", "com.example.app", path, time.Hour)

	_, err := signer.Sign()
	assert.ErrorIs(t, err, ErrKeyFileEmpty)
}
