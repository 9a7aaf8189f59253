package domain

import "time"

// InvalidReason is the fixed set of causes a token verification can fail with.
type InvalidReason string

const (
	ReasonNotSignedToken          InvalidReason = "not_signed_token"
	ReasonMissingKeyID            InvalidReason = "missing_key_id"
	ReasonKeyNotFound             InvalidReason = "key_not_found"
	ReasonSignatureInvalid        InvalidReason = "signature_invalid"
	ReasonInvalidIssuer           InvalidReason = "invalid_issuer"
	ReasonInvalidAudience         InvalidReason = "invalid_audience"
	ReasonExpired                 InvalidReason = "expired"
	ReasonTooOld                  InvalidReason = "too_old"
	ReasonMissingSubject          InvalidReason = "missing_subject"
	ReasonTokenRejectedByProvider InvalidReason = "token_rejected_by_provider"
	ReasonProviderUnavailable     InvalidReason = "provider_unavailable"
	ReasonInternalError           InvalidReason = "internal_error"
)

// VerificationResult is the outcome of verifying a provider-issued token.
// Failures are carried as a value, never as an error: the zero Reason and
// IsValid=true together mean the claim fields are populated.
type VerificationResult struct {
	IsValid bool          `json:"is_valid"`
	Reason  InvalidReason `json:"reason,omitempty"`

	Subject       string    `json:"sub,omitempty"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"email_verified,omitempty"`
	Issuer        string    `json:"iss,omitempty"`
	Audience      string    `json:"aud,omitempty"`
	IssuedAt      time.Time `json:"iat,omitempty"`
	ExpiresAt     time.Time `json:"exp,omitempty"`

	// Provider-specific extras carried through for the caller.
	AuthTime       *time.Time `json:"auth_time,omitempty"`
	Nonce          string     `json:"nonce,omitempty"`
	NonceSupported bool       `json:"nonce_supported,omitempty"`
	Nickname       string     `json:"nickname,omitempty"`
}

// Invalid builds a failed verification result with the given reason.
func Invalid(reason InvalidReason) VerificationResult {
	return VerificationResult{IsValid: false, Reason: reason}
}
