// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"net/http"

	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/middleware"
	"fanbase-service/internal/pkg/response"
	service "fanbase-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// Subscribe opens a pending subscription and returns the checkout URL
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscription.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid subscribe request", err)
		return
	}

	result, err := h.subscriptionService.Subscribe(c.Request.Context(), c.Param("userId"), c.Param("planId"), req.PaymentMethod)
	if err != nil {
		response.FromError(c, "failed to subscribe", err)
		return
	}

	response.Success(c, http.StatusCreated, "subscription pending payment", result)
}

// ListActive returns the user's active subscriptions
func (h *SubscriptionHandler) ListActive(c *gin.Context) {
	subs, err := h.subscriptionService.ListActive(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.FromError(c, "failed to list subscriptions", err)
		return
	}

	response.Success(c, http.StatusOK, "subscriptions retrieved", subscription.SubscriptionListResponse{
		Subscriptions: subs,
		Total:         len(subs),
	})
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	sub, err := h.subscriptionService.Get(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		response.FromError(c, "failed to get subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", sub)
}

// Cancel turns off auto-renewal; access continues until the end date
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sub, err := h.subscriptionService.Cancel(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		response.FromError(c, "failed to cancel subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription will not renew", sub)
}

func actor(c *gin.Context) subscription.Actor {
	id, _ := middleware.GetIdentityID(c)
	return subscription.Actor{ID: id, IsAdmin: middleware.IsAdmin(c)}
}
