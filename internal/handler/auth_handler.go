package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ordin20118/social-auth-service/internal/service"
	"github.com/ordin20118/social-auth-service/pkg/validator"
)

type AuthHandler struct {
	authService   *service.AuthService
	sessionTokens *service.SessionTokenService
	appleVerifier *service.AppleVerifier
	appleRevoke   *service.AppleRevokeService
	kakaoVerifier *service.KakaoVerifier
	validator     *validator.Validator
}

func NewAuthHandler(
	authService *service.AuthService,
	sessionTokens *service.SessionTokenService,
	appleVerifier *service.AppleVerifier,
	appleRevoke *service.AppleRevokeService,
	kakaoVerifier *service.KakaoVerifier,
	validator *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		sessionTokens: sessionTokens,
		appleVerifier: appleVerifier,
		appleRevoke:   appleRevoke,
		kakaoVerifier: kakaoVerifier,
		validator:     validator,
	}
}

// AppleLogin verifies an Apple identity token and issues a session credential
// POST /api/v1/auth/apple/login
func (h *AuthHandler) AppleLogin(c *fiber.Ctx) error {
	var req service.AppleLoginRequest
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

	resp, err := h.authService.AppleLogin(c.Context(), req, c.Get("User-Agent"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// AppleValidate verifies an Apple identity token without logging in
// POST /api/v1/auth/apple/validate
func (h *AuthHandler) AppleValidate(c *fiber.Ctx) error {
	var req struct {
		IdentityToken string `json:"identity_token" validate:"required"`
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

	result := h.appleVerifier.Verify(c.Context(), req.IdentityToken)
	return c.Status(fiber.StatusOK).JSON(result)
}

// AppleRevoke revokes a provider-issued Apple token
// POST /api/v1/auth/apple/revoke
func (h *AuthHandler) AppleRevoke(c *fiber.Ctx) error {
	var req struct {
		Token         string `json:"token" validate:"required"`
		TokenTypeHint string `json:"token_type_hint" validate:"omitempty,oneof=access_token refresh_token"`
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

	success := h.appleRevoke.Revoke(c.Context(), req.Token, req.TokenTypeHint)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": success,
	})
}

// KakaoLogin verifies a Kakao access token and issues a session credential
// POST /api/v1/auth/kakao/login
func (h *AuthHandler) KakaoLogin(c *fiber.Ctx) error {
	var req service.KakaoLoginRequest
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

	resp, err := h.authService.KakaoLogin(c.Context(), req, c.Get("User-Agent"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// KakaoValidate verifies a Kakao access token without logging in
// POST /api/v1/auth/kakao/validate
func (h *AuthHandler) KakaoValidate(c *fiber.Ctx) error {
	req, ok := h.kakaoTokenBody(c)
	if !ok {
		return nil
	}

	result := h.kakaoVerifier.Verify(c.Context(), req)
	return c.Status(fiber.StatusOK).JSON(result)
}

// KakaoLogout invalidates the provider session for a Kakao access token
// POST /api/v1/auth/kakao/logout
func (h *AuthHandler) KakaoLogout(c *fiber.Ctx) error {
	req, ok := h.kakaoTokenBody(c)
	if !ok {
		return nil
	}

	success := h.kakaoVerifier.Logout(c.Context(), req)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": success,
	})
}

// KakaoUnlink disconnects the Kakao account from the app
// POST /api/v1/auth/kakao/unlink
func (h *AuthHandler) KakaoUnlink(c *fiber.Ctx) error {
	req, ok := h.kakaoTokenBody(c)
	if !ok {
		return nil
	}

	success := h.authService.KakaoUnlink(c.Context(), req)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": success,
	})
}

// Logout revokes the presented session credential
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	credential, ok := bearerCredential(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing or malformed authorization header",
		})
	}

	h.authService.Logout(c.Context(), credential)
	return c.SendStatus(fiber.StatusOK)
}

// LogoutAll revokes every active session of the authenticated user
// POST /api/v1/auth/logout-all
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	credential, _ := c.Locals("credential").(string)

	count, err := h.authService.LogoutAll(c.Context(), credential)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"revoked": count,
	})
}

// Validate reports whether the presented session credential is active
// POST /api/v1/auth/validate
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	credential, ok := bearerCredential(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing or malformed authorization header",
		})
	}

	userID, valid := h.sessionTokens.ResolveUserID(c.Context(), credential)

	resp := fiber.Map{"valid": valid}
	if valid {
		resp["user_id"] = userID
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AuthHandler) kakaoTokenBody(c *fiber.Ctx) (string, bool) {
	var req struct {
		AccessToken string `json:"access_token" validate:"required"`
	}

	if err := c.BodyParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
		return "", false
	}

	if err := h.validator.Validate(req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
		return "", false
	}

	return req.AccessToken, true
}

// bearerCredential extracts the opaque credential from the Authorization
// header.
func bearerCredential(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
