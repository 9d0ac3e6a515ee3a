package handler

import (
	"io"
	"time"

	"cinematch/backend/internal/hub"
	"cinematch/backend/internal/metrics"

	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 25 * time.Second

// EventHandler streams relationship events to the caller.
type EventHandler struct {
	hub *hub.Hub
}

func NewEventHandler(h *hub.Hub) *EventHandler {
	return &EventHandler{hub: h}
}

// StreamEvents godoc
// @Summary      Stream events
// @Description  Server-sent events for friend requests, friendships and shared favorites addressed to the caller.
// @Tags         events
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200
// @Router       /entities/events [get]
func (h *EventHandler) StreamEvents(c *gin.Context) {
	userID := callerID(c)
	client := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(userID, client)

	metrics.EventStreams.Inc()
	defer metrics.EventStreams.Dec()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-ticker.C:
			c.SSEvent("ping", "")
			return true
		}
	})
}
