package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/micro-marketplace/pkg/auth"
)

// AuthMiddleware validates JWT tokens and forwards the caller's identity
// to backend services
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := claimsFromRequest(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// MethodAuthMiddleware requires a valid token only for the given methods.
// Reads stay public while writes are authenticated at the edge.
func MethodAuthMiddleware(methods ...string) fiber.Handler {
	protected := make(map[string]bool, len(methods))
	for _, m := range methods {
		protected[strings.ToUpper(m)] = true
	}

	return func(c *fiber.Ctx) error {
		if !protected[c.Method()] {
			// Still decorate the request when a valid token is present
			if claims, err := claimsFromRequest(c); err == nil {
				storeClaims(c, claims)
			}
			return c.Next()
		}

		claims, err := claimsFromRequest(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

func claimsFromRequest(c *fiber.Ctx) (*auth.Claims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("Authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("Invalid authorization header format")
	}

	claims, err := auth.ValidateToken(parts[1])
	if err != nil {
		return nil, fmt.Errorf("Invalid token")
	}

	return claims, nil
}

func storeClaims(c *fiber.Ctx, claims *auth.Claims) {
	c.Locals("user_id", claims.UserID)
	c.Locals("email", claims.Email)

	c.Request().Header.Set("X-User-ID", fmt.Sprintf("%d", claims.UserID))
	c.Request().Header.Set("X-Email", claims.Email)
}
