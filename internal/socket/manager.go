package socket

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/racon-ai/racon-backend/internal/logger"
)

const userChannelPrefix = "user:"

// Message is what goes out on the wire and over Redis.
type Message struct {
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}

// Event is the Data of a chat notification.
type Event struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload,omitempty"`
}

// UserChannel is the only channel a client may listen on: its owner's.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

type Hub struct {
	log      *logger.Logger
	nodeID   string
	mu       sync.RWMutex
	channels map[string]map[uuid.UUID]*Client

	redisPubSub *RedisPubSub
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:      log.With("component", "Hub"),
		nodeID:   uuid.NewString(),
		channels: make(map[string]map[uuid.UUID]*Client),
	}
}

func (h *Hub) SetRedisPubSub(rp *RedisPubSub) {
	h.redisPubSub = rp
}

func (h *Hub) Subscribe(client *Client, channels []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range channels {
		if h.channels[ch] == nil {
			h.channels[ch] = make(map[uuid.UUID]*Client)
		}
		h.channels[ch][client.ID] = client
	}
	h.log.Debug("Client subscribed", "client", client.ID, "channels", channels)
}

func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch, clientsMap := range h.channels {
		if _, ok := clientsMap[client.ID]; ok {
			delete(clientsMap, client.ID)
			if len(clientsMap) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	h.log.Debug("Client unsubscribed from all channels", "client", client.ID)
}

func (h *Hub) UnsubscribeFromChannel(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clientsMap, ok := h.channels[channel]; ok {
		delete(clientsMap, client.ID)
		if len(clientsMap) == 0 {
			delete(h.channels, channel)
		}
	}
}

// SubscriberCount reports how many local clients listen on channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) localBroadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clientsMap, ok := h.channels[msg.Channel]
	if !ok {
		return
	}
	for _, client := range clientsMap {
		select {
		case client.Outbound <- msg:
		default:
			h.log.Warn("Dropping message to client; outbound buffer full", "client", client.ID, "channel", msg.Channel)
		}
	}
}

// BroadcastGlobal delivers to local subscribers and, when Redis is wired, to
// every other node.
func (h *Hub) BroadcastGlobal(ctx context.Context, msg Message) {
	h.localBroadcast(msg)

	if h.redisPubSub != nil {
		if err := h.redisPubSub.Publish(ctx, h.nodeID, msg); err != nil {
			h.log.Warn("Failed to publish to Redis", "channel", msg.Channel, "error", err)
		}
	}
}

// PublishToUser satisfies the chat service's event publisher.
func (h *Hub) PublishToUser(ctx context.Context, userID, action string, payload interface{}) {
	if userID == "" {
		return
	}
	h.BroadcastGlobal(ctx, Message{
		Channel: UserChannel(userID),
		Data:    Event{Action: action, Payload: payload},
	})
}
