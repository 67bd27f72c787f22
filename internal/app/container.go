// internal/app/container.go
package app

import (
	"time"

	planHandler "fanbase-service/internal/handlers/plan"
	subscriptionHandler "fanbase-service/internal/handlers/subscription"
	walletHandler "fanbase-service/internal/handlers/wallet"
	webhookHandler "fanbase-service/internal/handlers/webhook"
	wsHandler "fanbase-service/internal/handlers/websocket"
	"fanbase-service/internal/middleware"
	"fanbase-service/internal/pkg/events"
	"fanbase-service/internal/pkg/jwt"
	"fanbase-service/internal/pkg/ratelimit"
	"fanbase-service/internal/service/expiry"
	"fanbase-service/internal/service/ledger"
	planService "fanbase-service/internal/service/plan"
	"fanbase-service/internal/service/reconciliation"
	subscriptionService "fanbase-service/internal/service/subscription"
	"fanbase-service/internal/websocket"
	wsHandlers "fanbase-service/internal/websocket/handler"

	"go.uber.org/zap"
)

// Dependencies are the collaborators a Container is assembled from.
type Dependencies struct {
	Repos          *Repositories
	Payments       subscriptionService.PaymentInitializer
	Publisher      events.Publisher
	Limiter        ratelimit.Limiter
	Verifier       *jwt.Verifier
	WebhookSecret  string
	CallbackURL    string
	PaymentTimeout time.Duration
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Container holds the wired services and HTTP handlers.
type Container struct {
	Hub          *websocket.Hub
	Plans        *planService.PlanService
	Subscription *subscriptionService.SubscriptionService
	Reconciler   *reconciliation.Service
	Ledger       *ledger.Service
	Expiry       *expiry.Service
	Handlers     *Handlers
}

func NewContainer(d Dependencies) *Container {
	logger := d.Logger
	repos := d.Repos
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewRedisLimiter(nil, "", 0, 0)
	}

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(d.Verifier, logger)

	// ----- Services -----
	plans := planService.NewPlanService(repos.Plans, repos.Artists, logger)
	ledgerSvc := ledger.NewService(repos.Wallets, d.Publisher, logger)
	subs := subscriptionService.NewSubscriptionService(
		repos.Subscriptions,
		repos.Plans,
		repos.Users,
		repos.Tx,
		d.Payments,
		d.Publisher,
		subscriptionService.Config{
			CallbackURL:    d.CallbackURL,
			PaymentTimeout: d.PaymentTimeout,
		},
		logger,
	)
	reconciler := reconciliation.NewService(
		repos.Subscriptions,
		repos.Plans,
		repos.Artists,
		ledgerSvc,
		repos.Tx,
		d.Publisher,
		hub,
		d.WebhookSecret,
		logger,
	)
	expirySvc := expiry.NewService(repos.Subscriptions, repos.Tx, d.Publisher, hub, logger)

	hub.RegisterHandler(wsHandlers.NewSubscriptionHandler(subs))

	// ----- Handlers -----
	handlers := &Handlers{
		PlanHandler:         planHandler.NewPlanHandler(plans),
		SubscriptionHandler: subscriptionHandler.NewSubscriptionHandler(subs),
		WebhookHandler:      webhookHandler.NewWebhookHandler(reconciler),
		WalletHandler:       walletHandler.NewWalletHandler(ledgerSvc, hub),
		WSHandler:           wsHandler.NewWebSocketHandler(hub, d.AllowedOrigins, logger),
		AuthMiddleware:      middleware.NewAuthMiddleware(d.Verifier),
		Limiter:             d.Limiter,
	}

	return &Container{
		Hub:          hub,
		Plans:        plans,
		Subscription: subs,
		Reconciler:   reconciler,
		Ledger:       ledgerSvc,
		Expiry:       expirySvc,
		Handlers:     handlers,
	}
}
