package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ordin20118/social-auth-service/internal/domain"
	"github.com/ordin20118/social-auth-service/pkg/applekeys"
)

const (
	// AppleIssuer is the issuer URL Apple identity tokens must carry.
	AppleIssuer = "https://appleid.apple.com"

	// defaultFreshness is the maximum accepted age of a token's issuance
	// timestamp.
	defaultFreshness = time.Hour
)

// AppleVerifier validates Apple identity tokens against the published key set
// and the configured claim policy.
type AppleVerifier struct {
	keys      *applekeys.Cache
	issuer    string
	bundleID  string
	freshness time.Duration
	now       func() time.Time
}

// NewAppleVerifier creates a verifier for the given bundle id. Zero issuer
// and freshness fall back to Apple's issuer URL and a one hour window.
func NewAppleVerifier(keys *applekeys.Cache, issuer, bundleID string, freshness time.Duration) *AppleVerifier {
	if issuer == "" {
		issuer = AppleIssuer
	}
	if freshness <= 0 {
		freshness = defaultFreshness
	}

	return &AppleVerifier{
		keys:      keys,
		issuer:    issuer,
		bundleID:  bundleID,
		freshness: freshness,
		now:       time.Now,
	}
}

// appleClaims are the identity token claims the policy checks and the login
// flow consumes. Apple encodes some booleans as the strings "true"/"false".
type appleClaims struct {
	jwt.RegisteredClaims
	Email          string     `json:"email"`
	EmailVerified  stringBool `json:"email_verified"`
	AuthTime       *int64     `json:"auth_time"`
	Nonce          string     `json:"nonce"`
	NonceSupported stringBool `json:"nonce_supported"`
}

type stringBool bool

func (b *stringBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*b = true
		return nil
	case "false", "null":
		*b = false
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = s == "true"
	return nil
}

// Verify runs the verification stages in order and reports the first failing
// one. It never returns an error or panics to the caller.
func (v *AppleVerifier) Verify(ctx context.Context, identityToken string) (result domain.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[APPLE_VERIFIER] panic during verification: %v", r)
			result = domain.Invalid(domain.ReasonInternalError)
		}
	}()

	// Stage 1: the token must parse as a signed JWT.
	unverified, _, err := jwt.NewParser().ParseUnverified(identityToken, &appleClaims{})
	if err != nil {
		return domain.Invalid(domain.ReasonNotSignedToken)
	}

	// Stage 2: the header must name the signing key.
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return domain.Invalid(domain.ReasonMissingKeyID)
	}

	// Stage 3: resolve the public key, fetching the key set on a miss.
	key, err := v.keys.Key(ctx, kid)
	if err != nil {
		log.Printf("[APPLE_VERIFIER] cannot resolve public key for kid %s: %v", kid, err)
		return domain.Invalid(domain.ReasonKeyNotFound)
	}

	// Stage 4: check the signature only; claim policy runs separately so the
	// reported reason follows the policy order.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &appleClaims{}
	if _, err := parser.ParseWithClaims(identityToken, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}); err != nil {
		return domain.Invalid(domain.ReasonSignatureInvalid)
	}

	// Stage 5: claim policy, first violated rule wins.
	if reason, ok := v.checkClaims(claims); !ok {
		return domain.Invalid(reason)
	}

	result = domain.VerificationResult{
		IsValid:        true,
		Subject:        claims.Subject,
		Email:          claims.Email,
		EmailVerified:  bool(claims.EmailVerified),
		Issuer:         claims.Issuer,
		Audience:       firstAudience(claims.Audience),
		IssuedAt:       claims.IssuedAt.Time,
		ExpiresAt:      claims.ExpiresAt.Time,
		Nonce:          claims.Nonce,
		NonceSupported: bool(claims.NonceSupported),
	}
	if claims.AuthTime != nil {
		authTime := time.Unix(*claims.AuthTime, 0)
		result.AuthTime = &authTime
	}

	return result
}

func (v *AppleVerifier) checkClaims(claims *appleClaims) (domain.InvalidReason, bool) {
	now := v.now()

	if claims.Issuer != v.issuer {
		return domain.ReasonInvalidIssuer, false
	}

	if firstAudience(claims.Audience) != v.bundleID {
		return domain.ReasonInvalidAudience, false
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(now) {
		return domain.ReasonExpired, false
	}

	if claims.IssuedAt == nil || claims.IssuedAt.Time.Before(now.Add(-v.freshness)) {
		return domain.ReasonTooOld, false
	}

	if claims.Subject == "" {
		return domain.ReasonMissingSubject, false
	}

	return "", true
}

func firstAudience(aud jwt.ClaimStrings) string {
	if len(aud) == 0 {
		return ""
	}
	return aud[0]
}
