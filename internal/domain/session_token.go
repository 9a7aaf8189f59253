package domain

import (
	"time"

	"github.com/google/uuid"
)

type TokenPlatform string

const (
	PlatformInternal TokenPlatform = "internal"
	PlatformApple    TokenPlatform = "apple"
	PlatformKakao    TokenPlatform = "kakao"
	PlatformNaver    TokenPlatform = "naver"
)

// SessionToken is one issued session credential. The client only ever holds
// TokenHash; the signed assertion in Token stays server-side and is re-checked
// on every validation. token_hash is globally unique.
type SessionToken struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	UserID    uuid.UUID     `json:"user_id" db:"user_id"`
	TokenHash string        `json:"-" db:"token_hash"`
	Token     string        `json:"-" db:"token"`
	Platform  TokenPlatform `json:"platform" db:"platform"`
	UserAgent string        `json:"user_agent" db:"user_agent"`
	ExpireAt  time.Time     `json:"expire_at" db:"expire_at"`
	RevokedAt *time.Time    `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// IsActive reports whether the token is usable: not revoked and not expired.
func (t *SessionToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpireAt.After(now)
}
