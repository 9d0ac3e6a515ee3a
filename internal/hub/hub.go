package hub

import (
	"sync"

	"cinematch/backend/internal/logging"

	"github.com/goccy/go-json"
)

// Event types published to users.
const (
	FriendRequestReceived = "friend_request.received"
	FriendRequestAccepted = "friend_request.accepted"
	FriendshipRemoved     = "friendship.removed"
	FavoritesShared       = "favorites.shared"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client is one open event stream of a user.
// The SSE handler reads from it until the hub closes it.
type Client chan []byte

// Hub fans events out to every open stream of a user.
type Hub struct {
	users map[uint]map[Client]bool
	mu    sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[uint]map[Client]bool),
	}
}

// Subscribe registers a new stream for userID.
func (h *Hub) Subscribe(userID uint) Client {
	client := make(Client, 16)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[Client]bool)
	}
	h.users[userID][client] = true
	return client
}

// Unsubscribe removes a stream and closes it.
func (h *Hub) Unsubscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.users[userID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client)
			if len(clients) == 0 {
				delete(h.users, userID)
			}
		}
	}
}

// Subscribers returns the number of open streams for userID.
func (h *Hub) Subscribers(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Publish sends an event to every stream of userID. A nil Hub drops events.
func (h *Hub) Publish(userID uint, event Event) {
	if h == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.users[userID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		logging.Error().Err(err).Str("event", event.Type).Msg("failed to encode event")
		return
	}

	for client := range clients {
		// Slow streams lose events rather than stall the publisher.
		select {
		case client <- messageBytes:
		default:
			logging.Warn().Uint("user_id", userID).Str("event", event.Type).Msg("event stream full, dropping event")
		}
	}
}
