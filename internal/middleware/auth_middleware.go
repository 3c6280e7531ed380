package middleware

import (
	"strings"

	"github.com/devhub/cv-optimizer/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"
)

// Auth validates the bearer session token against the external identity
// provider. Session management itself lives with the provider; this
// middleware only distinguishes "unauthenticated" from every other error so
// clients can redirect to login instead of showing a generic failure.
// When no introspection endpoint is configured the middleware is a no-op.
func Auth() fiber.Handler {
	authConfig := config.LoadAuthConfig()
	rest := resty.New()

	unauthorized := func(c *fiber.Ctx, message string) error {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": message,
			"kind":    "unauthorized",
		})
	}

	return func(c *fiber.Ctx) error {
		if authConfig.IntrospectURL == "" {
			return c.Next()
		}

		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return unauthorized(c, "missing session token")
		}

		resp, err := rest.R().
			SetContext(c.UserContext()).
			SetHeader("X-Api-Key", authConfig.APIKey).
			SetBody(map[string]string{"token": token}).
			Post(authConfig.IntrospectURL)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "identity provider unreachable")
		}
		if resp.StatusCode() != fiber.StatusOK || !gjson.GetBytes(resp.Body(), "active").Bool() {
			return unauthorized(c, "invalid or expired session")
		}

		return c.Next()
	}
}
