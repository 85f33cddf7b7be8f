// Package sse fans account events out to a user's open dashboard streams.
package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/splitrail/splitrail-web/internal/metrics"
)

const (
	EventUsageUploaded = "usage_uploaded"
	EventTokensChanged = "tokens_changed"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type UsageUploadedData struct {
	Accepted int `json:"accepted"`
}

type TokensChangedData struct {
	Action  string `json:"action"`
	TokenID string `json:"token_id"`
}

func UsageUploaded(accepted int) Event {
	return Event{Type: EventUsageUploaded, Data: UsageUploadedData{Accepted: accepted}}
}

func TokensChanged(action, tokenID string) Event {
	return Event{Type: EventTokensChanged, Data: TokensChangedData{Action: action, TokenID: tokenID}}
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *UserMessage
	done       chan struct{}
	mu         sync.RWMutex
}

type UserMessage struct {
	UserID uuid.UUID
	Event  Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *UserMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
				metrics.EventStreams.Dec()
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			metrics.EventStreams.Inc()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				metrics.EventStreams.Dec()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				slog.Warn("failed to encode event", "type", msg.Event.Type, "error", err)
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if client.UserID != msg.UserID {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds client. Once the hub has stopped the client is closed
// right away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports the open streams of userID.
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, client := range h.clients {
		if client.UserID == userID {
			n++
		}
	}
	return n
}

// Publish queues event for every stream of userID. It never blocks the
// caller: when the queue is full the event is dropped.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &UserMessage{UserID: userID, Event: event}:
	default:
		slog.Warn("event queue full, dropping event", "type", event.Type, "user_id", userID)
	}
}
