package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/spec-kit/dispatch-service/internal/realtime"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

const feedHeartbeat = 30 * time.Second

// FeedHandler streams dashboard refresh notifications for one event as
// server-sent events.
type FeedHandler struct {
	feed   *realtime.Feed
	events *service.EventService
}

// NewFeedHandler constructs handler.
func NewFeedHandler(feed *realtime.Feed, eventService *service.EventService) *FeedHandler {
	return &FeedHandler{feed: feed, events: eventService}
}

// Stream GET /events/:id/feed. Notifications carry no row data; the client
// re-fetches the staffing aggregate or chat on each message.
func (h *FeedHandler) Stream(c *fiber.Ctx) error {
	actor := requireProfile(c)
	eventID := c.Params("id")

	// reuse the event read path for access control
	if _, err := h.events.GetEvent(c.Context(), actor, eventID); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifications, err := h.feed.Subscribe(ctx, eventID)
	if err != nil {
		cancel()
		return apperrors.NewInternalError(err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(feedHeartbeat)
		defer ticker.Stop()

		for {
			select {
			case notification, ok := <-notifications:
				if !ok {
					return
				}
				if err := writeFeedEvent(w, notification); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeFeedEvent(w *bufio.Writer, notification realtime.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", notification.Type, payload); err != nil {
		return err
	}
	return w.Flush()
}
