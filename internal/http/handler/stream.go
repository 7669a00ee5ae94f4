package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/leads/common/logger"
	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/model"
)

// SSE event names.
const (
	EventReady   = "ready"
	EventChange  = "change"
	EventPing    = "ping"
	EventEvicted = "evicted"
)

// StreamHandler serves change feed subscriptions as Server-Sent Events.
type StreamHandler struct {
	hub       *changefeed.Hub
	heartbeat time.Duration
}

func NewStreamHandler(hub *changefeed.Hub, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &StreamHandler{hub: hub, heartbeat: heartbeat}
}

// Leads streams every lead change.
func (h *StreamHandler) Leads(c *gin.Context) {
	h.stream(c, changefeed.Filter{Entity: model.EntityLead})
}

// Lead streams updates to one lead and the messages appended to it.
func (h *StreamHandler) Lead(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}
	h.stream(c, changefeed.Filter{LeadID: &leadID})
}

func (h *StreamHandler) stream(c *gin.Context, filter changefeed.Filter) {
	ctx := c.Request.Context()

	if _, ok := c.Writer.(http.Flusher); !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgStreamUnsupported})
		return
	}

	sub, err := h.hub.Subscribe(filter)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	defer sub.Close()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SubscriptionID: logger.Ptr(sub.ID()),
		Component:      "leads.http.stream",
	})
	slog.DebugContext(ctx, "change stream opened", "path", c.FullPath())

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	c.SSEvent(EventReady, gin.H{"subscription_id": sub.ID()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.DebugContext(ctx, "change stream closed by client")
			return
		case <-ticker.C:
			c.SSEvent(EventPing, time.Now().UTC().Format(time.RFC3339Nano))
			c.Writer.Flush()
		case event, ok := <-sub.Events():
			if !ok {
				if err := sub.Err(); errors.Is(err, changefeed.ErrSubscriberLagged) || errors.Is(err, changefeed.ErrHubClosed) {
					c.SSEvent(EventEvicted, gin.H{"error": err.Error()})
					c.Writer.Flush()
				}
				slog.InfoContext(ctx, "change stream ended", "reason", sub.Err())
				return
			}
			c.SSEvent(EventChange, event)
			c.Writer.Flush()
		}
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}
