// internal/app/router.go
package app

import (
	"net/http"

	planHandler "fanbase-service/internal/handlers/plan"
	subscriptionHandler "fanbase-service/internal/handlers/subscription"
	walletHandler "fanbase-service/internal/handlers/wallet"
	webhookHandler "fanbase-service/internal/handlers/webhook"
	wsHandler "fanbase-service/internal/handlers/websocket"
	"fanbase-service/internal/middleware"
	"fanbase-service/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	PlanHandler         *planHandler.PlanHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	WebhookHandler      *webhookHandler.WebhookHandler
	WalletHandler       *walletHandler.WalletHandler
	WSHandler           *wsHandler.WebSocketHandler
	AuthMiddleware      *middleware.AuthMiddleware
	Limiter             ratelimit.Limiter
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Plan Catalog ====================
	plans := api.Group("/plans/:artistId")
	{
		plans.GET("", h.PlanHandler.ListPlans)
		plans.GET("/:planId", h.PlanHandler.GetPlan)

		owner := plans.Group("")
		owner.Use(h.AuthMiddleware.SelfOrAdmin("artistId")...)
		{
			owner.POST("", h.PlanHandler.CreatePlan)
			owner.POST("/:planId/deactivate", h.PlanHandler.DeactivatePlan)
		}
	}

	// ==================== User Subscriptions ====================
	users := api.Group("/users/:userId/subscriptions")
	users.Use(h.AuthMiddleware.SelfOrAdmin("userId")...)
	{
		users.GET("", h.SubscriptionHandler.ListActive)
		users.POST("/:planId",
			middleware.RateLimit(h.Limiter, "subscribe", logger),
			h.SubscriptionHandler.Subscribe,
		)
	}

	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(h.AuthMiddleware.Auth())
	{
		subscriptions.GET("/:id", h.SubscriptionHandler.GetSubscription)
		subscriptions.POST("/:id/cancel", h.SubscriptionHandler.Cancel)
	}

	// ==================== Payment Webhooks ====================
	// Authenticated by the provider's HMAC signature, not a bearer token.
	api.POST("/webhooks/payment", h.WebhookHandler.HandlePayment)

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.GET("/wallets/:currency", h.WalletHandler.GetWallet)
		admin.POST("/wallets/:currency/withdraw", h.WalletHandler.Withdraw)
		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
