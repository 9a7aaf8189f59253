package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ordin20118/social-auth-service/internal/domain"
)

type SessionTokenRepository interface {
	Create(ctx context.Context, token *domain.SessionToken) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.SessionToken, error)
	GetActiveByHash(ctx context.Context, tokenHash string, now time.Time) (*domain.SessionToken, error)
	GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.SessionToken, error)
	RevokeByHash(ctx context.Context, tokenHash string, revokedAt time.Time) (int64, error)
	RevokeAllByUserID(ctx context.Context, userID uuid.UUID, revokedAt time.Time) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
