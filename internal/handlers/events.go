package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/internal/middleware"
	"github.com/splitrail/splitrail-web/internal/sse"
)

type EventsHandler struct {
	hub EventHubInterface
}

func NewEventsHandler(hub EventHubInterface) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Connect streams the session user's account events until the client goes
// away. The dashboard reloads its figures on usage_uploaded.
func (h *EventsHandler) Connect(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// publish is a no-op when no hub is attached.
func publish(events EventPublisher, userID uuid.UUID, event sse.Event) {
	if events != nil {
		events.Publish(userID, event)
	}
}
