package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/lumencast/lumencast/app/controllers"
	"github.com/lumencast/lumencast/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Identity headers are lifted into context for every route; individual
	// routes opt into RequireUser / RequireModerator.
	app.Use(middleware.IdentityMiddleware())

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "LumenCast API",
		})
	})

	v1 := api.Group("/v1")

	// Live sessions
	v1.Get("/sessions/live", controllers.HandleListLiveSessions)
	v1.Get("/sessions/:id", controllers.HandleGetSession)
	v1.Post("/sessions", middleware.RequireUser(), controllers.HandleStartSession)
	v1.Post("/sessions/:id/end", middleware.RequireUser(), controllers.HandleEndSession)
	v1.Post("/sessions/:id/force-end", middleware.RequireModerator(), controllers.HandleForceEndSession)

	// Viewer presence
	v1.Post("/sessions/:id/join", middleware.RequireUser(), controllers.HandleJoinSession)
	v1.Post("/sessions/:id/leave", middleware.RequireUser(), controllers.HandleLeaveSession)
	v1.Get("/sessions/:id/viewers", controllers.HandleViewerCount)

	// Chat
	v1.Post("/sessions/:id/chat", middleware.RequireUser(), controllers.HandleSendChat)
	v1.Get("/sessions/:id/chat", controllers.HandleChatHistory)

	// Broadcasters
	v1.Get("/broadcasters/:id/session", controllers.HandleGetBroadcasterSession)
	v1.Get("/broadcasters/:id/tiers", controllers.HandleListTiers)
	v1.Get("/broadcasters/:id/entitlement", middleware.RequireUser(), controllers.HandleGetEntitlement)

	// Tiers
	v1.Post("/tiers", middleware.RequireUser(), controllers.HandleCreateTier)
	v1.Post("/tiers/:id/discount", middleware.RequireUser(), controllers.HandleSetDiscount)
	v1.Post("/tiers/:id/deactivate", middleware.RequireUser(), controllers.HandleDeactivateTier)
	v1.Get("/tiers/:id/price", controllers.HandleGetTierPrice)

	// Subscriptions
	v1.Post("/subscriptions", middleware.RequireUser(), controllers.HandleSubscribe)
	v1.Post("/subscriptions/:id/cancel", middleware.RequireUser(), controllers.HandleCancelSubscription)
	v1.Put("/subscriptions/:id/auto-renew", middleware.RequireUser(), controllers.HandleSetAutoRenew)
	v1.Get("/me/subscriptions", middleware.RequireUser(), controllers.HandleListMySubscriptions)
	v1.Get("/me/stream-key", middleware.RequireUser(), controllers.HandleGetStreamKey)

	// Billing collaborator callbacks, authenticated by payload signature
	v1.Post("/webhooks/billing/:provider", controllers.HandleBillingWebhook)

	// Media ingest callback, authenticated by the stream key itself
	v1.Post("/ingest/validate-key", controllers.HandleValidateStreamKey)

	// Admin
	v1.Post("/admin/maintenance/sweep", middleware.RequireModerator(), controllers.HandleRunSubscriptionSweep)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
