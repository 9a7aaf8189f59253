package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ordin20118/social-auth-service/internal/domain"
	"github.com/ordin20118/social-auth-service/internal/repository"
)

type sessionTokenRepository struct {
	db *sqlx.DB
}

// NewSessionTokenRepository creates a new PostgreSQL session token repository
func NewSessionTokenRepository(db *sqlx.DB) repository.SessionTokenRepository {
	return &sessionTokenRepository{db: db}
}

// Create inserts a new session token into the database
func (r *sessionTokenRepository) Create(ctx context.Context, token *domain.SessionToken) error {
	query := `
		INSERT INTO session_tokens (
			id, user_id, token_hash, token, platform,
			user_agent, expire_at, revoked_at, created_at
		) VALUES (
			:id, :user_id, :token_hash, :token, :platform,
			:user_agent, :expire_at, :revoked_at, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to create session token: %w", err)
	}

	return nil
}

// GetByHash retrieves a session token by its hash regardless of state
func (r *sessionTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.SessionToken, error) {
	query := `
		SELECT id, user_id, token_hash, token, platform,
			   user_agent, expire_at, revoked_at, created_at
		FROM session_tokens
		WHERE token_hash = $1`

	var token domain.SessionToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session token by hash: %w", err)
	}

	return &token, nil
}

// GetActiveByHash retrieves a session token by exact hash match that is
// neither revoked nor expired
func (r *sessionTokenRepository) GetActiveByHash(ctx context.Context, tokenHash string, now time.Time) (*domain.SessionToken, error) {
	query := `
		SELECT id, user_id, token_hash, token, platform,
			   user_agent, expire_at, revoked_at, created_at
		FROM session_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL AND expire_at > $2`

	var token domain.SessionToken
	err := r.db.GetContext(ctx, &token, query, tokenHash, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active session token: %w", err)
	}

	return &token, nil
}

// GetActiveByUserID retrieves all active session tokens for a user
func (r *sessionTokenRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.SessionToken, error) {
	query := `
		SELECT id, user_id, token_hash, token, platform,
			   user_agent, expire_at, revoked_at, created_at
		FROM session_tokens
		WHERE user_id = $1 AND revoked_at IS NULL AND expire_at > $2
		ORDER BY created_at DESC`

	var tokens []*domain.SessionToken
	err := r.db.SelectContext(ctx, &tokens, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active session tokens by user id: %w", err)
	}

	return tokens, nil
}

// RevokeByHash stamps revoked_at on the matching row in a single atomic
// update; already-revoked rows are left untouched
func (r *sessionTokenRepository) RevokeByHash(ctx context.Context, tokenHash string, revokedAt time.Time) (int64, error) {
	query := `
		UPDATE session_tokens
		SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, tokenHash, revokedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke session token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// RevokeAllByUserID revokes every active session token for a user
func (r *sessionTokenRepository) RevokeAllByUserID(ctx context.Context, userID uuid.UUID, revokedAt time.Time) (int64, error) {
	query := `
		UPDATE session_tokens
		SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL AND expire_at > $2`

	result, err := r.db.ExecContext(ctx, query, userID, revokedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke session tokens for user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// DeleteExpired removes session tokens whose expiry has passed, regardless of
// revocation state
func (r *sessionTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM session_tokens WHERE expire_at <= $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired session tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
