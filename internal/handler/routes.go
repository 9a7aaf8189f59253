package handler

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires all HTTP routes
func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	webhookHandler *WebhookHandler,
	healthHandler *HealthHandler,
	sessionAuth fiber.Handler,
) {
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/apple/login", authHandler.AppleLogin)
	auth.Post("/apple/validate", authHandler.AppleValidate)
	auth.Post("/apple/revoke", authHandler.AppleRevoke)
	auth.Post("/kakao/login", authHandler.KakaoLogin)
	auth.Post("/kakao/validate", authHandler.KakaoValidate)
	auth.Post("/kakao/logout", authHandler.KakaoLogout)
	auth.Post("/kakao/unlink", authHandler.KakaoUnlink)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", sessionAuth, authHandler.LogoutAll)
	auth.Post("/validate", authHandler.Validate)

	webhooks := api.Group("/webhooks")
	webhooks.Post("/apple", webhookHandler.AppleNotification)
}
