package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ordin20118/social-auth-service/internal/domain"
	"github.com/ordin20118/social-auth-service/internal/repository"
)

// Custom errors
var (
	ErrInvalidProviderToken = errors.New("provider token validation failed")
	ErrUserNotActive        = errors.New("user account is not active")
	ErrEmailRequired        = errors.New("email is required to create an account")
	ErrInvalidCredential    = errors.New("invalid session credential")
)

// AuthService orchestrates federated login: provider token verification,
// user/linkage resolution and opaque session credential issuance.
type AuthService struct {
	userRepo      repository.UserRepository
	socialRepo    repository.SocialAccountRepository
	sessionTokens *SessionTokenService
	apple         *AppleVerifier
	kakao         *KakaoVerifier
	now           func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	socialRepo repository.SocialAccountRepository,
	sessionTokens *SessionTokenService,
	apple *AppleVerifier,
	kakao *KakaoVerifier,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		socialRepo:    socialRepo,
		sessionTokens: sessionTokens,
		apple:         apple,
		kakao:         kakao,
		now:           time.Now,
	}
}

// VerifierFor returns the verifier registered for a provider.
func (s *AuthService) VerifierFor(provider domain.SocialProvider) (IdentityVerifier, bool) {
	switch provider {
	case domain.ProviderApple:
		return s.apple, true
	case domain.ProviderKakao:
		return s.kakao, true
	default:
		return nil, false
	}
}

type AppleUserName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AppleUserPayload is the optional user object Apple delivers on the first
// authorization only.
type AppleUserPayload struct {
	Email string         `json:"email"`
	Name  *AppleUserName `json:"name"`
}

type AppleLoginRequest struct {
	IdentityToken string            `json:"identity_token" validate:"required"`
	User          *AppleUserPayload `json:"user,omitempty"`
}

type KakaoLoginRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// AppleLogin verifies an Apple identity token, resolves or creates the local
// user, and issues an opaque session credential.
func (s *AuthService) AppleLogin(ctx context.Context, req AppleLoginRequest, userAgent string) (*TokenResponse, error) {
	result := s.apple.Verify(ctx, req.IdentityToken)
	if !result.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderToken, result.Reason)
	}

	email := result.Email
	if email == "" && req.User != nil {
		email = req.User.Email
	}

	user, err := s.getOrCreateUser(ctx, domain.ProviderApple, result.Subject, email, appleNickname(req.User, email), nil)
	if err != nil {
		return nil, err
	}

	return s.startSession(ctx, user, domain.PlatformApple, userAgent)
}

// KakaoLogin verifies a Kakao access token, resolves or creates the local
// user, and issues an opaque session credential. The provider access token is
// retained on the linkage for later logout/unlink calls.
func (s *AuthService) KakaoLogin(ctx context.Context, req KakaoLoginRequest, userAgent string) (*TokenResponse, error) {
	result := s.kakao.Verify(ctx, req.AccessToken)
	if !result.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderToken, result.Reason)
	}

	user, err := s.getOrCreateUser(ctx, domain.ProviderKakao, result.Subject, result.Email, result.Nickname, &req.AccessToken)
	if err != nil {
		return nil, err
	}

	return s.startSession(ctx, user, domain.PlatformKakao, userAgent)
}

// Logout revokes the presented session credential. Unknown credentials are a
// no-op.
func (s *AuthService) Logout(ctx context.Context, credential string) bool {
	return s.sessionTokens.Revoke(ctx, credential)
}

// LogoutAll revokes every active session of the user the credential resolves
// to and returns how many were revoked.
func (s *AuthService) LogoutAll(ctx context.Context, credential string) (int64, error) {
	userID, ok := s.sessionTokens.ResolveUserID(ctx, credential)
	if !ok {
		return 0, ErrInvalidCredential
	}

	return s.sessionTokens.RevokeAll(ctx, userID)
}

// KakaoUnlink disconnects the Kakao account at the provider and clears the
// retained provider tokens on the linkage. The provider call degrading to
// false does not block the local cleanup.
func (s *AuthService) KakaoUnlink(ctx context.Context, accessToken string) bool {
	ok := s.kakao.Unlink(ctx, accessToken)

	result := s.kakao.Verify(ctx, accessToken)
	if !result.IsValid {
		// Token already dead at the provider; nothing to look up locally.
		return ok
	}

	account, err := s.socialRepo.GetByProviderAndSocialID(ctx, domain.ProviderKakao, result.Subject)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("[AUTH_SERVICE] kakao unlink linkage lookup failed: %v", err)
		}
		return ok
	}

	cleared := account.WithoutProviderTokens()
	if err := s.socialRepo.Update(ctx, &cleared); err != nil {
		log.Printf("[AUTH_SERVICE] failed to clear provider tokens: %v", err)
	}

	return ok
}

// startSession enforces the user state gate, stamps the login and issues the
// opaque credential.
func (s *AuthService) startSession(ctx context.Context, user *domain.User, platform domain.TokenPlatform, userAgent string) (*TokenResponse, error) {
	if user.State != domain.UserStateActive {
		return nil, ErrUserNotActive
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		// Login proceeds; the stamp is best effort.
		log.Printf("[AUTH_SERVICE] failed to update last login for user %s: %v", user.ID, err)
	}

	if userAgent == "" {
		userAgent = "Unknown"
	}

	credential, err := s.sessionTokens.Issue(ctx, user.ID, platform, userAgent)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{AccessToken: credential}, nil
}

// getOrCreateUser resolves the linkage for an external identity, signing the
// user up on the first federated login.
func (s *AuthService) getOrCreateUser(ctx context.Context, provider domain.SocialProvider, socialID, email, nickname string, accessToken *string) (*domain.User, error) {
	account, err := s.socialRepo.GetByProviderAndSocialID(ctx, provider, socialID)
	if err == nil {
		return s.userRepo.GetByID(ctx, account.UserID)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if email == "" {
		return nil, ErrEmailRequired
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		now := s.now()
		user = &domain.User{
			ID:                 uuid.New(),
			Email:              email,
			Nickname:           nickname,
			State:              domain.UserStateActive,
			Marketing:          domain.ConsentDisagree,
			TermsOfService:     domain.ConsentAgree,
			PersonalInfoPolicy: domain.ConsentAgree,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		log.Printf("[AUTH_SERVICE] created user %s for %s login", user.ID, provider)
	} else if err != nil {
		return nil, err
	}

	var linkEmail *string
	if email != "" {
		linkEmail = &email
	}

	account = &domain.SocialAccount{
		ID:          uuid.New(),
		UserID:      user.ID,
		Provider:    provider,
		SocialID:    socialID,
		Email:       linkEmail,
		AccessToken: accessToken,
		ConnectedAt: s.now(),
	}

	if err := s.socialRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return user, nil
}

// appleNickname derives a display name from the first-login user payload,
// falling back to the email local part and then a generic default.
func appleNickname(payload *AppleUserPayload, email string) string {
	if payload != nil && payload.Name != nil {
		name := strings.TrimSpace(payload.Name.FirstName + " " + payload.Name.LastName)
		if name != "" {
			return name
		}
	}

	if email != "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at]
		}
	}

	return "apple_user"
}
