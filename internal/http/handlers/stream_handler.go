// README: Server-sent change signals backed by the relay hub.
package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gazflow/internal/http/middleware"
	"gazflow/internal/modules/relay"
)

type StreamHandler struct {
	hub       relay.Hub
	keepAlive time.Duration
}

func NewStreamHandler(hub relay.Hub) *StreamHandler {
	return &StreamHandler{hub: hub, keepAlive: 25 * time.Second}
}

// Stream sends one "change" event immediately and one per relay signal on
// :topic. Events carry no row data; clients re-query. The subscription is
// released when the client disconnects.
func (h *StreamHandler) Stream(c *gin.Context) {
	subject, ok := relay.ParseSubject(c.Param("topic"))
	if !ok {
		writeError(c, http.StatusBadRequest, "unknown topic")
		return
	}
	if !relay.Allowed(middleware.Caller(c), subject) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	signals := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- relay.Watch(ctx, h.hub, subject, func(context.Context) error {
			select {
			case signals <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-signals:
			c.SSEvent("change", gin.H{"topic": string(subject)})
			return true
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		case err := <-done:
			if err != nil {
				log.Printf("stream %s: %v", subject, err)
			}
			return false
		case <-ctx.Done():
			return false
		}
	})
}
