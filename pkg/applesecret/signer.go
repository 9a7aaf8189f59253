package applesecret

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenAudience is the authority Apple expects server-to-server assertions to
// be addressed to.
const TokenAudience = "https://appleid.apple.com"

var (
	ErrKeyFileEmpty = errors.New("private key file is empty")
	ErrNotECKey     = errors.New("private key is not an EC key")
)

// Signer produces the short-lived ES256 client secret Apple requires for
// server API calls such as token revocation.
type Signer struct {
	teamID   string
	keyID    string
	bundleID string
	keyPath  string
	ttl      time.Duration
	now      func() time.Time
}

// NewSigner creates a client secret signer. ttl is clamped to Apple's one
// hour maximum.
func NewSigner(teamID, keyID, bundleID, keyPath string, ttl time.Duration) *Signer {
	if ttl <= 0 || ttl > time.Hour {
		ttl = time.Hour
	}

	return &Signer{
		teamID:   teamID,
		keyID:    keyID,
		bundleID: bundleID,
		keyPath:  keyPath,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Sign loads the developer private key and returns a fresh signed assertion.
// Key-loading and signing failures surface as errors, never as a default
// value.
func (s *Signer) Sign() (string, error) {
	key, err := s.loadPrivateKey()
	if err != nil {
		return "", fmt.Errorf("failed to load developer key: %w", err)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.teamID,
		Subject:   s.bundleID,
		Audience:  jwt.ClaimStrings{TokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign client secret: %w", err)
	}

	return signed, nil
}

// loadPrivateKey reads the PKCS8 PEM key file Apple issues for the developer
// account.
func (s *Signer) loadPrivateKey() (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(s.keyPath)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, ErrKeyFileEmpty
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("no PEM block in key file")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS8 key: %w", err)
	}

	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, ErrNotECKey
	}

	return key, nil
}
