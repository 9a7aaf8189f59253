package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/ordin20118/social-auth-service/internal/domain"
	"github.com/ordin20118/social-auth-service/pkg/kakao"
)

// KakaoVerifier validates opaque Kakao access tokens by delegating to the
// provider API: token introspection first, then the canonical user profile.
type KakaoVerifier struct {
	client *kakao.Client
	now    func() time.Time
}

func NewKakaoVerifier(client *kakao.Client) *KakaoVerifier {
	return &KakaoVerifier{
		client: client,
		now:    time.Now,
	}
}

// Verify checks the access token against the provider. A 401 from either call
// means the provider rejected the token; any other failure means the provider
// was unreachable or misbehaving.
func (v *KakaoVerifier) Verify(ctx context.Context, accessToken string) domain.VerificationResult {
	info, err := v.client.TokenInfo(ctx, accessToken)
	if err != nil {
		return v.failure("token introspection", err)
	}

	user, err := v.client.UserMe(ctx, accessToken)
	if err != nil {
		return v.failure("user profile lookup", err)
	}

	now := v.now()
	result := domain.VerificationResult{
		IsValid:   true,
		Subject:   strconv.FormatInt(user.ID, 10),
		Email:     kakaoEmail(user),
		Nickname:  kakaoNickname(user),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Duration(info.ExpiresIn) * time.Second),
	}

	if user.KakaoAccount != nil && user.KakaoAccount.IsEmailVerified != nil {
		result.EmailVerified = *user.KakaoAccount.IsEmailVerified
	}

	return result
}

// Logout invalidates the provider session. Provider-side failures degrade to
// false, they never propagate.
func (v *KakaoVerifier) Logout(ctx context.Context, accessToken string) bool {
	if err := v.client.Logout(ctx, accessToken); err != nil {
		log.Printf("[KAKAO_VERIFIER] logout failed: %v", err)
		return false
	}
	return true
}

// Unlink disconnects the Kakao account from the app. Provider-side failures
// degrade to false.
func (v *KakaoVerifier) Unlink(ctx context.Context, accessToken string) bool {
	if err := v.client.Unlink(ctx, accessToken); err != nil {
		log.Printf("[KAKAO_VERIFIER] unlink failed: %v", err)
		return false
	}
	return true
}

func (v *KakaoVerifier) failure(stage string, err error) domain.VerificationResult {
	if errors.Is(err, kakao.ErrUnauthorized) {
		log.Printf("[KAKAO_VERIFIER] %s rejected by provider", stage)
		return domain.Invalid(domain.ReasonTokenRejectedByProvider)
	}

	log.Printf("[KAKAO_VERIFIER] %s failed: %v", stage, err)
	return domain.Invalid(domain.ReasonProviderUnavailable)
}

// kakaoEmail resolves the account email, falling back to a placeholder
// synthesized from the provider user id.
func kakaoEmail(user *kakao.UserInfo) string {
	if user.KakaoAccount != nil && user.KakaoAccount.Email != "" {
		return user.KakaoAccount.Email
	}
	return fmt.Sprintf("%d@kakao.local", user.ID)
}

// kakaoNickname resolves a display name: account profile nickname, then the
// legacy properties nickname, then a generated default.
func kakaoNickname(user *kakao.UserInfo) string {
	if user.KakaoAccount != nil && user.KakaoAccount.Profile != nil && user.KakaoAccount.Profile.Nickname != "" {
		return user.KakaoAccount.Profile.Nickname
	}
	if user.Properties != nil && user.Properties.Nickname != "" {
		return user.Properties.Nickname
	}
	return fmt.Sprintf("kakao_%d", user.ID)
}
