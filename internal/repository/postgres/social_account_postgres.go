package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ordin20118/social-auth-service/internal/domain"
	"github.com/ordin20118/social-auth-service/internal/repository"
)

type socialAccountRepository struct {
	db *sqlx.DB
}

// NewSocialAccountRepository creates a new PostgreSQL social account repository
func NewSocialAccountRepository(db *sqlx.DB) repository.SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

// Create inserts a new social account into the database
func (r *socialAccountRepository) Create(ctx context.Context, account *domain.SocialAccount) error {
	query := `
		INSERT INTO social_accounts (
			id, user_id, provider, social_id, email,
			access_token, refresh_token, connected_at
		) VALUES (
			:id, :user_id, :provider, :social_id, :email,
			:access_token, :refresh_token, :connected_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, account)
	if err != nil {
		return fmt.Errorf("failed to create social account: %w", err)
	}

	return nil
}

// GetByProviderAndSocialID retrieves the linkage for one external identity
func (r *socialAccountRepository) GetByProviderAndSocialID(ctx context.Context, provider domain.SocialProvider, socialID string) (*domain.SocialAccount, error) {
	query := `
		SELECT id, user_id, provider, social_id, email,
			   access_token, refresh_token, connected_at
		FROM social_accounts
		WHERE provider = $1 AND social_id = $2`

	var account domain.SocialAccount
	err := r.db.GetContext(ctx, &account, query, provider, socialID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get social account: %w", err)
	}

	return &account, nil
}

// GetByUserID retrieves all social accounts linked to a user
func (r *socialAccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.SocialAccount, error) {
	query := `
		SELECT id, user_id, provider, social_id, email,
			   access_token, refresh_token, connected_at
		FROM social_accounts
		WHERE user_id = $1
		ORDER BY connected_at`

	var accounts []*domain.SocialAccount
	err := r.db.SelectContext(ctx, &accounts, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get social accounts by user id: %w", err)
	}

	return accounts, nil
}

// Update replaces the full row for an existing social account
func (r *socialAccountRepository) Update(ctx context.Context, account *domain.SocialAccount) error {
	query := `
		UPDATE social_accounts
		SET user_id = :user_id,
			provider = :provider,
			social_id = :social_id,
			email = :email,
			access_token = :access_token,
			refresh_token = :refresh_token,
			connected_at = :connected_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, account)
	if err != nil {
		return fmt.Errorf("failed to update social account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a social account from the database
func (r *socialAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM social_accounts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete social account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}
