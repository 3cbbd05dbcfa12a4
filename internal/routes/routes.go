package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/puerhcraft/offerguard/internal/config"
	"github.com/puerhcraft/offerguard/internal/handlers"
	"github.com/puerhcraft/offerguard/internal/metrics"
	"github.com/puerhcraft/offerguard/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	gatherer prometheus.Gatherer,
	claimHandler *handlers.ClaimHandler,
	webhookHandler *handlers.WebhookHandler,
	healthHandler *handlers.HealthHandler,
	adminHandler *handlers.AdminHandler,
) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(gatherer)))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP. Webhook redeliveries from
	// the commerce platform arrive well under this.
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Redemption checks get a stricter per-IP budget: a browser performs at
	// most one per visit.
	claimsGroup := api.Group("/claims")
	claimsGroup.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	claimsGroup.Post("/check", claimHandler.Check)

	// Webhooks authenticate via signature, not JWT or CORS.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/orders", webhookHandler.HandleOrder)

	// Operational views, token-protected.
	admin := api.Group("/admin", middleware.AdminRequired(cfg))
	admin.Get("/claims", adminHandler.ListClaims)
	admin.Get("/claims/:id", adminHandler.GetClaim)
	admin.Get("/webhooks", adminHandler.ListWebhookEvents)
}
