package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/ordin20118/social-auth-service/internal/service"
	"github.com/ordin20118/social-auth-service/pkg/validator"
)

type WebhookHandler struct {
	webhookService *service.WebhookService
	validator      *validator.Validator
}

func NewWebhookHandler(webhookService *service.WebhookService, validator *validator.Validator) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		validator:      validator,
	}
}

// AppleNotification receives Apple server-to-server notifications
// POST /api/v1/webhooks/apple
func (h *WebhookHandler) AppleNotification(c *fiber.Ctx) error {
	var req struct {
		SignedPayload string `json:"signedPayload" validate:"required"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validator.Validate(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	log.Printf("[WEBHOOK_HANDLER] received Apple server-to-server notification")

	if err := h.webhookService.Handle(c.Context(), req.SignedPayload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
