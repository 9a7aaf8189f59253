package service

import (
	"context"

	"github.com/ordin20118/social-auth-service/internal/domain"
)

// IdentityVerifier validates a provider-issued token and returns normalized
// identity claims, or an invalid result carrying the failure reason. It never
// returns an error: provider and transport failures are folded into the
// result.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) domain.VerificationResult
}
