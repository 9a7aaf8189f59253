package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordin20118/social-auth-service/pkg/applesecret"
)

func newRevokeSigner(t *testing.T) *applesecret.Signer {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "auth_key.p8")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	return applesecret.NewSigner("TEAM123456", "KEY1234567", testAppleBundle, path, time.Hour)
}

func TestAppleRevokeSendsForm(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"client_id":       r.PostFormValue("client_id"),
			"token":           r.PostFormValue("token"),
			"token_type_hint": r.PostFormValue("token_type_hint"),
		}
		assert.NotEmpty(t, r.PostFormValue("client_secret"))
	}))
	defer srv.Close()

	svc := NewAppleRevokeService(newRevokeSigner(t), testAppleBundle, srv.URL, srv.Client())

	assert.True(t, svc.Revoke(context.Background(), "provider-refresh-token", ""))
	assert.Equal(t, testAppleBundle, form["client_id"])
	assert.Equal(t, "provider-refresh-token", form["token"])
	assert.Equal(t, "refresh_token", form["token_type_hint"])
}

func TestAppleRevokeHonorsTokenTypeHint(t *testing.T) {
	var hint string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		hint = r.PostFormValue("token_type_hint")
	}))
	defer srv.Close()

	svc := NewAppleRevokeService(newRevokeSigner(t), testAppleBundle, srv.URL, srv.Client())

	assert.True(t, svc.Revoke(context.Background(), "provider-access-token", "access_token"))
	assert.Equal(t, "access_token", hint)
}

func TestAppleRevokeDegradesOnProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	svc := NewAppleRevokeService(newRevokeSigner(t), testAppleBundle, srv.URL, srv.Client())

	assert.False(t, svc.Revoke(context.Background(), "provider-refresh-token", ""))
}

func TestAppleRevokeDegradesOnMissingKey(t *testing.T) {
	signer := applesecret.NewSigner("TEAM123456", "KEY1234567", testAppleBundle, "/nonexistent/key.p8", time.Hour)
	svc := NewAppleRevokeService(signer, testAppleBundle, "http://localhost:0", nil)

	assert.False(t, svc.Revoke(context.Background(), "provider-refresh-token", ""))
}
