// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	wstypes "fanbase-service/internal/domain/websocket"
	"fanbase-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// TokenVerifier validates the access token presented on upgrade.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

type Hub struct {
	// Registered clients by identity ID
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	handlerRegistry *HandlerRegistry
	verifier        TokenVerifier
	logger          *zap.Logger
}

type BroadcastMessage struct {
	IdentityIDs []string
	Channel     wstypes.ChannelType
	Message     *wstypes.WSMessage
}

func NewHub(verifier TokenVerifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		verifier:        verifier,
		logger:          logger,
	}
}

// AuthenticateClient validates the JWT token and returns the connecting identity.
func (h *Hub) AuthenticateClient(token string) (*ClientAuth, error) {
	claims, err := h.verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	return &ClientAuth{
		IdentityID: claims.IdentityID,
		TokenID:    claims.ID,
		Roles:      claims.Roles,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage delegates to a registered handler. It reports false
// when no handler claims the event.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.identityID] == nil {
		h.clients[client.identityID] = make(map[*Client]bool)
	}
	h.clients[client.identityID][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("identity_id", client.identityID),
		zap.Int("total", total))

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"identity_id": client.identityID,
		"roles":       client.roles,
		"channels":    client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.identityID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, client.identityID)
	}

	h.logger.Info("websocket client disconnected",
		zap.String("identity_id", client.identityID),
		zap.Int("total", h.totalClients()))
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(clients map[*Client]bool) {
		for client := range clients {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if msg.IdentityIDs == nil {
		for _, clients := range h.clients {
			deliver(clients)
		}
		return
	}
	for _, identityID := range msg.IdentityIDs {
		deliver(h.clients[identityID])
	}
}

// NotifyUser queues event for every connection of userID. It never blocks;
// when the queue is full the push is dropped.
func (h *Hub) NotifyUser(userID, event string, data interface{}) {
	h.enqueue(&BroadcastMessage{
		IdentityIDs: []string{userID},
		Channel:     channelFor(event),
		Message:     wstypes.NewMessage(wstypes.EventType(event), data),
	})
}

// NotifyAdmins pushes event to every connected client subscribed to the
// event's channel. Only admins may join the wallet channel.
func (h *Hub) NotifyAdmins(event string, data interface{}) {
	h.enqueue(&BroadcastMessage{
		Channel: channelFor(event),
		Message: wstypes.NewMessage(wstypes.EventType(event), data),
	})
}

func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message",
			zap.String("event", string(msg.Message.Type)))
	}
}

func (h *Hub) GetConnectedClients(identityID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[identityID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(identityID string) bool {
	return h.GetConnectedClients(identityID) > 0
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}
