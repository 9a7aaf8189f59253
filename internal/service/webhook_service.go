package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ordin20118/social-auth-service/internal/domain"
	"github.com/ordin20118/social-auth-service/internal/repository"
)

// ErrWebhookParseFailed means the notification payload was not a parseable
// signed structure. It is the only webhook condition surfaced to the caller.
var ErrWebhookParseFailed = errors.New("webhook payload parse failed")

// Provider server-to-server event types.
const (
	eventAccountDelete    = "account-delete"
	eventEmailDisabled    = "email-disabled"
	eventEmailEnabled     = "email-enabled"
	eventConsentWithdrawn = "consent-withdrawn"
)

// WebhookService processes Apple server-to-server notifications and applies
// the resulting account state transitions.
type WebhookService struct {
	userRepo      repository.UserRepository
	socialRepo    repository.SocialAccountRepository
	sessionTokens *SessionTokenService
	now           func() time.Time
}

func NewWebhookService(
	userRepo repository.UserRepository,
	socialRepo repository.SocialAccountRepository,
	sessionTokens *SessionTokenService,
) *WebhookService {
	return &WebhookService{
		userRepo:      userRepo,
		socialRepo:    socialRepo,
		sessionTokens: sessionTokens,
		now:           time.Now,
	}
}

// webhookClaims is the event envelope carried inside the signed payload.
type webhookClaims struct {
	jwt.RegisteredClaims
	Events map[string]json.RawMessage `json:"events"`
}

// Handle parses the signed payload and dispatches each event. Event handlers
// isolate their own failures so one bad event cannot block its siblings; only
// a structurally invalid payload aborts the call.
//
// The payload signature is extracted but not checked against Apple's
// published keys before the events are acted on.
func (s *WebhookService) Handle(ctx context.Context, signedPayload string) error {
	claims := &webhookClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(signedPayload, claims); err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookParseFailed, err)
	}

	subject := claims.Subject

	for eventType := range claims.Events {
		var err error
		switch eventType {
		case eventAccountDelete:
			err = s.handleAccountDelete(ctx, subject)
		case eventEmailDisabled:
			err = s.handleEmailDisabled(ctx, subject)
		case eventEmailEnabled:
			// Observed only. The upstream email is not refreshed here.
			log.Printf("[APPLE_WEBHOOK] email enabled for subject %s", subject)
		case eventConsentWithdrawn:
			err = s.handleConsentWithdrawn(ctx, subject)
		default:
			log.Printf("[APPLE_WEBHOOK] unhandled event type: %s", eventType)
		}

		if err != nil {
			log.Printf("[APPLE_WEBHOOK] failed to process %s for subject %s: %v", eventType, subject, err)
		}
	}

	return nil
}

// handleAccountDelete transitions the linked user to withdrawn, revokes their
// sessions and removes the linkage. A repeat delivery finds no linkage and is
// a no-op.
func (s *WebhookService) handleAccountDelete(ctx context.Context, subject string) error {
	account, err := s.socialRepo.GetByProviderAndSocialID(ctx, domain.ProviderApple, subject)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("[APPLE_WEBHOOK] no linkage for subject %s, nothing to delete", subject)
		return nil
	}
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, account.UserID)
	if err != nil {
		return err
	}

	withdrawn := user.Withdrawn(s.now())
	if err := s.userRepo.Update(ctx, &withdrawn); err != nil {
		return err
	}

	if _, err := s.sessionTokens.RevokeAll(ctx, user.ID); err != nil {
		log.Printf("[APPLE_WEBHOOK] failed to revoke sessions for user %s: %v", user.ID, err)
	}

	if err := s.socialRepo.Delete(ctx, account.ID); err != nil {
		return err
	}

	log.Printf("[APPLE_WEBHOOK] processed account deletion for user %s", user.ID)
	return nil
}

// handleEmailDisabled clears the relay email stored on the linkage.
func (s *WebhookService) handleEmailDisabled(ctx context.Context, subject string) error {
	account, err := s.socialRepo.GetByProviderAndSocialID(ctx, domain.ProviderApple, subject)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("[APPLE_WEBHOOK] no linkage for subject %s", subject)
		return nil
	}
	if err != nil {
		return err
	}

	updated := account.WithoutEmail()
	return s.socialRepo.Update(ctx, &updated)
}

// handleConsentWithdrawn flips the linked user's marketing consent to
// disagree.
func (s *WebhookService) handleConsentWithdrawn(ctx context.Context, subject string) error {
	account, err := s.socialRepo.GetByProviderAndSocialID(ctx, domain.ProviderApple, subject)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("[APPLE_WEBHOOK] no linkage for subject %s", subject)
		return nil
	}
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, account.UserID)
	if err != nil {
		return err
	}

	updated := user.WithMarketing(domain.ConsentDisagree, s.now())
	return s.userRepo.Update(ctx, &updated)
}
