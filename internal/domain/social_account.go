package domain

import (
	"time"

	"github.com/google/uuid"
)

type SocialProvider string

const (
	ProviderApple SocialProvider = "apple"
	ProviderKakao SocialProvider = "kakao"
	ProviderNaver SocialProvider = "naver"
)

// SocialAccount links a local user to one external provider identity.
// (provider, social_id) is unique: one row per external identity.
type SocialAccount struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	UserID       uuid.UUID      `json:"user_id" db:"user_id"`
	Provider     SocialProvider `json:"provider" db:"provider"`
	SocialID     string         `json:"social_id" db:"social_id"`
	Email        *string        `json:"email,omitempty" db:"email"`
	AccessToken  *string        `json:"-" db:"access_token"`
	RefreshToken *string        `json:"-" db:"refresh_token"`
	ConnectedAt  time.Time      `json:"connected_at" db:"connected_at"`
}

// WithoutEmail returns a copy of the account with the stored email cleared.
func (a SocialAccount) WithoutEmail() SocialAccount {
	a.Email = nil
	return a
}

// WithoutProviderTokens returns a copy with the provider-issued tokens cleared.
func (a SocialAccount) WithoutProviderTokens() SocialAccount {
	a.AccessToken = nil
	a.RefreshToken = nil
	return a
}
