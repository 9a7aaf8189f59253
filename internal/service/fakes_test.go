package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ordin20118/social-auth-service/internal/domain"
	"github.com/ordin20118/social-auth-service/internal/repository"
)

// In-memory stand-ins for the persistence collaborators.

type fakeSessionTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.SessionToken
}

func newFakeSessionTokenRepo() *fakeSessionTokenRepo {
	return &fakeSessionTokenRepo{tokens: make(map[string]*domain.SessionToken)}
}

func (r *fakeSessionTokenRepo) Create(_ context.Context, token *domain.SessionToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.TokenHash] = &cp
	return nil
}

func (r *fakeSessionTokenRepo) GetByHash(_ context.Context, tokenHash string) (*domain.SessionToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *token
	return &cp, nil
}

func (r *fakeSessionTokenRepo) GetActiveByHash(_ context.Context, tokenHash string, now time.Time) (*domain.SessionToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenHash]
	if !ok || !token.IsActive(now) {
		return nil, repository.ErrNotFound
	}
	cp := *token
	return &cp, nil
}

func (r *fakeSessionTokenRepo) GetActiveByUserID(_ context.Context, userID uuid.UUID, now time.Time) ([]*domain.SessionToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.SessionToken
	for _, token := range r.tokens {
		if token.UserID == userID && token.IsActive(now) {
			cp := *token
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionTokenRepo) RevokeByHash(_ context.Context, tokenHash string, revokedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenHash]
	if !ok || token.RevokedAt != nil {
		return 0, nil
	}
	token.RevokedAt = &revokedAt
	return 1, nil
}

func (r *fakeSessionTokenRepo) RevokeAllByUserID(_ context.Context, userID uuid.UUID, revokedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, token := range r.tokens {
		if token.UserID == userID && token.IsActive(revokedAt) {
			at := revokedAt
			token.RevokedAt = &at
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for hash, token := range r.tokens {
		if !token.ExpireAt.After(before) {
			delete(r.tokens, hash)
			count++
		}
	}
	return count, nil
}

// setToken overwrites a stored row, bypassing the repository contract. Used
// to simulate corruption.
func (r *fakeSessionTokenRepo) setToken(tokenHash string, mutate func(*domain.SessionToken)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.tokens[tokenHash]; ok {
		mutate(token)
	}
}

type fakeRevocationCache struct {
	mu      sync.Mutex
	revoked map[string]bool
	users   map[string]time.Time
}

func newFakeRevocationCache() *fakeRevocationCache {
	return &fakeRevocationCache{
		revoked: make(map[string]bool),
		users:   make(map[string]time.Time),
	}
}

func (c *fakeRevocationCache) MarkRevoked(_ context.Context, tokenHash string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl > 0 {
		c.revoked[tokenHash] = true
	}
	return nil
}

func (c *fakeRevocationCache) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revoked[tokenHash], nil
}

func (c *fakeRevocationCache) MarkUserRevoked(_ context.Context, userID string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[userID] = time.Now()
	return nil
}

func (c *fakeRevocationCache) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	marked, ok := c.users[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Before(marked), nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

type fakeSocialRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.SocialAccount
}

func newFakeSocialRepo() *fakeSocialRepo {
	return &fakeSocialRepo{accounts: make(map[uuid.UUID]*domain.SocialAccount)}
}

func (r *fakeSocialRepo) Create(_ context.Context, account *domain.SocialAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *fakeSocialRepo) GetByProviderAndSocialID(_ context.Context, provider domain.SocialProvider, socialID string) (*domain.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Provider == provider && account.SocialID == socialID {
			cp := *account
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSocialRepo) GetByUserID(_ context.Context, userID uuid.UUID) ([]*domain.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.SocialAccount
	for _, account := range r.accounts {
		if account.UserID == userID {
			cp := *account
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSocialRepo) Update(_ context.Context, account *domain.SocialAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *fakeSocialRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}
