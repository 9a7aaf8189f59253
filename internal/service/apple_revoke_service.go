package service

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ordin20118/social-auth-service/pkg/applesecret"
)

// DefaultAppleRevokeURL is Apple's token revocation endpoint.
const DefaultAppleRevokeURL = "https://appleid.apple.com/auth/revoke"

// AppleRevokeService revokes provider-issued tokens through Apple's server
// API, authenticating with a freshly signed client secret.
type AppleRevokeService struct {
	secrets   *applesecret.Signer
	bundleID  string
	revokeURL string
	client    *http.Client
}

func NewAppleRevokeService(secrets *applesecret.Signer, bundleID, revokeURL string, client *http.Client) *AppleRevokeService {
	if revokeURL == "" {
		revokeURL = DefaultAppleRevokeURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &AppleRevokeService{
		secrets:   secrets,
		bundleID:  bundleID,
		revokeURL: revokeURL,
		client:    client,
	}
}

// Revoke invalidates a provider token. tokenTypeHint is "refresh_token" or
// "access_token". Provider-side failures degrade to false, never to an error.
func (s *AppleRevokeService) Revoke(ctx context.Context, token, tokenTypeHint string) bool {
	if tokenTypeHint == "" {
		tokenTypeHint = "refresh_token"
	}

	secret, err := s.secrets.Sign()
	if err != nil {
		log.Printf("[APPLE_REVOKE] failed to generate client secret: %v", err)
		return false
	}

	form := url.Values{
		"client_id":       {s.bundleID},
		"client_secret":   {secret},
		"token":           {token},
		"token_type_hint": {tokenTypeHint},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("[APPLE_REVOKE] failed to build revoke request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[APPLE_REVOKE] revoke request failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[APPLE_REVOKE] revoke rejected with status %d", resp.StatusCode)
		return false
	}

	log.Printf("[APPLE_REVOKE] token revoked successfully")
	return true
}
