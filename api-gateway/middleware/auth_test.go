package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/micro-marketplace/pkg/auth"
)

func newMethodAuthApp() *fiber.App {
	app := fiber.New()
	app.Use(MethodAuthMiddleware("POST"))
	app.All("/products", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"forwarded_user": string(c.Request().Header.Peek("X-User-ID")),
		})
	})
	return app
}

func TestMethodAuthAllowsPublicReads(t *testing.T) {
	app := newMethodAuthApp()

	req := httptest.NewRequest("GET", "/products", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for unauthenticated GET, got %d", resp.StatusCode)
	}
}

func TestMethodAuthBlocksUnauthenticatedWrites(t *testing.T) {
	app := newMethodAuthApp()

	req := httptest.NewRequest("POST", "/products", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthenticated POST, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/products", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", resp.StatusCode)
	}
}

func TestMethodAuthForwardsIdentity(t *testing.T) {
	app := newMethodAuthApp()

	token, err := auth.GenerateToken(42, "seller@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest("POST", "/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for authenticated POST, got %d", resp.StatusCode)
	}
}
