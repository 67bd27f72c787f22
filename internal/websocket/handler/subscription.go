// internal/websocket/handler/subscription.go
package handlers

import (
	"context"
	"fmt"

	"fanbase-service/internal/domain/subscription"
	wstypes "fanbase-service/internal/domain/websocket"
	ws "fanbase-service/internal/websocket"
)

// ActiveLister lists a user's active subscriptions.
type ActiveLister interface {
	ListActive(ctx context.Context, userID string) ([]*subscription.UserSubscription, error)
}

// SubscriptionHandler answers subscription queries over the socket so a
// client can resync after reconnecting.
type SubscriptionHandler struct {
	subscriptions ActiveLister
}

func NewSubscriptionHandler(subscriptions ActiveLister) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
	}
}

// SupportedEvents returns events this handler supports
func (h *SubscriptionHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeSubscriptionList,
	}
}

func (h *SubscriptionHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeSubscriptionList:
		return h.handleList(ctx, client)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

func (h *SubscriptionHandler) handleList(ctx context.Context, client *ws.Client) error {
	subs, err := h.subscriptions.ListActive(ctx, client.GetIdentityID())
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeSubscriptionList, subscription.SubscriptionListResponse{
		Subscriptions: subs,
		Total:         len(subs),
	}))
	return nil
}
