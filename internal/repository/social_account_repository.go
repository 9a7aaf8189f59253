package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ordin20118/social-auth-service/internal/domain"
)

type SocialAccountRepository interface {
	Create(ctx context.Context, account *domain.SocialAccount) error
	GetByProviderAndSocialID(ctx context.Context, provider domain.SocialProvider, socialID string) (*domain.SocialAccount, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.SocialAccount, error)
	Update(ctx context.Context, account *domain.SocialAccount) error
	Delete(ctx context.Context, id uuid.UUID) error
}
