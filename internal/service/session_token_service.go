package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ordin20118/social-auth-service/internal/domain"
	"github.com/ordin20118/social-auth-service/internal/repository"
	"github.com/ordin20118/social-auth-service/pkg/jwt"
)

// RevocationCache is the fast-path lookup for revoked credentials. Cache
// failures are logged and ignored: the database stays authoritative.
type RevocationCache interface {
	MarkRevoked(ctx context.Context, tokenHash string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
	MarkUserRevoked(ctx context.Context, userID string, ttl time.Duration) error
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// SessionTokenService issues and checks opaque session credentials. The
// credential handed to the client is the SHA-256 hash of a signed internal
// assertion; the assertion itself never leaves the server. Validation is
// always an exact-match lookup followed by re-verification of the stored
// assertion, never local re-derivation.
type SessionTokenService struct {
	repo   repository.SessionTokenRepository
	tokens *jwt.TokenService
	cache  RevocationCache
	now    func() time.Time
}

func NewSessionTokenService(
	repo repository.SessionTokenRepository,
	tokens *jwt.TokenService,
	cache RevocationCache,
) *SessionTokenService {
	return &SessionTokenService{
		repo:   repo,
		tokens: tokens,
		cache:  cache,
		now:    time.Now,
	}
}

// Issue signs a fresh internal assertion for the user, persists it keyed by
// its hash, and returns the hash as the opaque bearer credential.
func (s *SessionTokenService) Issue(ctx context.Context, userID uuid.UUID, platform domain.TokenPlatform, userAgent string) (string, error) {
	assertion, err := s.tokens.Generate(userID)
	if err != nil {
		return "", err
	}

	now := s.now()
	token := &domain.SessionToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hashToken(assertion),
		Token:     assertion,
		Platform:  platform,
		UserAgent: userAgent,
		ExpireAt:  now.Add(s.tokens.Expiry()),
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, token); err != nil {
		return "", err
	}

	return token.TokenHash, nil
}

// Validate reports whether the presented credential belongs to an active
// session. A credential that was never issued always fails.
func (s *SessionTokenService) Validate(ctx context.Context, credential string) bool {
	_, ok := s.lookup(ctx, credential)
	return ok
}

// ResolveUserID returns the user the credential is bound to, if it is valid.
func (s *SessionTokenService) ResolveUserID(ctx context.Context, credential string) (uuid.UUID, bool) {
	token, ok := s.lookup(ctx, credential)
	if !ok {
		return uuid.Nil, false
	}
	return token.UserID, true
}

// Revoke stamps the matching session revoked. Revoking an unknown or
// already-revoked credential is a no-op; the return value reports whether a
// row was changed.
func (s *SessionTokenService) Revoke(ctx context.Context, credential string) bool {
	token, err := s.repo.GetByHash(ctx, credential)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("[SESSION_TOKEN] revoke lookup failed: %v", err)
		}
		return false
	}

	rows, err := s.repo.RevokeByHash(ctx, credential, s.now())
	if err != nil {
		log.Printf("[SESSION_TOKEN] revoke failed: %v", err)
		return false
	}

	if rows > 0 {
		if err := s.cache.MarkRevoked(ctx, credential, time.Until(token.ExpireAt)); err != nil {
			log.Printf("[SESSION_TOKEN] failed to cache revocation: %v", err)
		}
	}

	return rows > 0
}

// RevokeAll revokes every active session for the user and returns how many
// were revoked. Used for logout-all, withdrawal and webhook-driven deletion.
func (s *SessionTokenService) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.RevokeAllByUserID(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}

	if err := s.cache.MarkUserRevoked(ctx, userID.String(), s.tokens.Expiry()); err != nil {
		log.Printf("[SESSION_TOKEN] failed to cache user revocation: %v", err)
	}

	return count, nil
}

// PurgeExpired deletes rows past their expiry regardless of revocation state.
// Retention cleanup, not part of the authentication hot path.
func (s *SessionTokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func (s *SessionTokenService) lookup(ctx context.Context, credential string) (*domain.SessionToken, bool) {
	revoked, err := s.cache.IsRevoked(ctx, credential)
	if err != nil {
		log.Printf("[SESSION_TOKEN] revocation cache check failed: %v", err)
	} else if revoked {
		return nil, false
	}

	token, err := s.repo.GetActiveByHash(ctx, credential, s.now())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("[SESSION_TOKEN] credential lookup failed: %v", err)
		}
		return nil, false
	}

	// Re-verify the stored assertion's own signature and expiry. Guards
	// against stale or corrupted rows that the active query cannot see.
	claims, err := s.tokens.Validate(token.Token)
	if err != nil {
		log.Printf("[SESSION_TOKEN] stored assertion rejected for token %s: %v", token.ID, err)
		return nil, false
	}

	if claims.UserID != token.UserID {
		log.Printf("[SESSION_TOKEN] stored assertion user mismatch for token %s", token.ID)
		return nil, false
	}

	userRevoked, err := s.cache.IsUserRevoked(ctx, token.UserID.String(), token.CreatedAt)
	if err != nil {
		log.Printf("[SESSION_TOKEN] user revocation check failed: %v", err)
	} else if userRevoked {
		return nil, false
	}

	return token, true
}

// hashToken derives the public-facing credential from the internal assertion.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(sum[:])
}
