package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/micro-marketplace/api-gateway/config"
	"github.com/tair/micro-marketplace/api-gateway/health"
	"github.com/tair/micro-marketplace/api-gateway/middleware"
	"github.com/tair/micro-marketplace/api-gateway/proxy"
)

// RouteDefinition maps a path prefix to a backend service
type RouteDefinition struct {
	Prefix      string
	ServiceName string
	Description string
	// Methods that require a valid token at the edge. Empty means the
	// backend decides on its own.
	AuthMethods []string
}

// Routes holds all route definitions
var Routes = []RouteDefinition{
	{
		Prefix:      "/auth",
		ServiceName: "user",
		Description: "Registration, login and profile endpoints",
	},
	{
		Prefix:      "/products",
		ServiceName: "product",
		Description: "Product catalog and favorites (reads public, writes authenticated)",
		AuthMethods: []string{"POST", "PUT", "DELETE"},
	},
}

// SetupRoutes configures all routes in the gateway
func SetupRoutes(app *fiber.App, cfg *config.GatewayConfig, cbManager *middleware.CircuitBreakerManager) *proxy.ReverseProxy {
	reverseProxy := proxy.NewReverseProxy(cfg)
	healthChecker := health.NewHealthChecker(cfg)

	// Gateway quick health check (no downstream probes)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(healthChecker.QuickCheck())
	})

	// Liveness probe
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "alive",
		})
	})

	// Readiness probe (checks downstream services)
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		healthStatus := healthChecker.CheckAllServices(ctx)

		statusCode := fiber.StatusOK
		if healthStatus.Status == "unhealthy" {
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(healthStatus)
	})

	// Load balancer and circuit breaker stats
	app.Get("/gateway/stats", func(c *fiber.Ctx) error {
		lbStats := make(map[string]interface{})
		for name, lb := range reverseProxy.LoadBalancers() {
			lbStats[name] = lb.Stats()
		}

		return c.JSON(fiber.Map{
			"load_balancers":   lbStats,
			"circuit_breakers": cbManager.AllStats(),
		})
	})

	// API overview
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Micro Marketplace API",
			"version": "1.0.0",
			"routes":  Routes,
		})
	})

	for _, route := range Routes {
		registerServiceRoutes(app, route, reverseProxy)
	}

	return reverseProxy
}

func registerServiceRoutes(app *fiber.App, route RouteDefinition, proxyHandler *proxy.ReverseProxy) {
	handler := func(c *fiber.Ctx) error {
		return proxyHandler.ProxyRequest(c, route.ServiceName)
	}

	var middlewares []fiber.Handler
	if len(route.AuthMethods) > 0 {
		middlewares = append(middlewares, middleware.MethodAuthMiddleware(route.AuthMethods...))
	}

	group := app.Group(route.Prefix, middlewares...)
	group.All("/*", handler)

	// The exact prefix path, without a trailing segment
	if len(middlewares) > 0 {
		app.All(route.Prefix, append(middlewares, handler)...)
	} else {
		app.All(route.Prefix, handler)
	}
}
