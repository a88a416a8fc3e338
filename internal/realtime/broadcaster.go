package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/persistence"
)

const channelPrefix = "realtime:events:"

// Notification is the envelope pushed to feed subscribers. It carries no
// row data; consumers re-fetch the affected aggregate on receipt.
type Notification struct {
	Type    events.EventType `json:"type"`
	EventID string           `json:"event_id"`
}

// Broadcaster forwards staffing-event domain events onto per-event Redis
// channels so dashboard clients can refresh.
type Broadcaster struct {
	redis  *persistence.Redis
	logger *zap.Logger
}

// NewBroadcaster creates the broadcaster.
func NewBroadcaster(redis *persistence.Redis, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{redis: redis, logger: logger}
}

// RegisterHandlers subscribes to the event types that affect an event's
// dashboard view.
func (b *Broadcaster) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventDispatchIssued, b.handle)
	dispatcher.Subscribe(events.EventDispatchResponded, b.handle)
	dispatcher.Subscribe(events.EventMessagePosted, b.handle)
}

func (b *Broadcaster) handle(ctx context.Context, event events.Event) error {
	if event.EventID == "" {
		return nil
	}
	if b.redis == nil || b.redis.Client == nil {
		return nil
	}

	payload, err := json.Marshal(Notification{Type: event.Type, EventID: event.EventID})
	if err != nil {
		return err
	}

	channel := channelPrefix + event.EventID
	if err := b.redis.Client.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Warn("realtime publish failed",
			zap.String("channel", channel),
			zap.Error(err))
	}
	return nil
}

// Feed exposes the subscriber side of the realtime channel.
type Feed struct {
	redis  *persistence.Redis
	logger *zap.Logger
}

// NewFeed creates a feed bound to the Redis client.
func NewFeed(redis *persistence.Redis, logger *zap.Logger) *Feed {
	return &Feed{redis: redis, logger: logger}
}

// Subscribe returns a channel of notifications for one staffing event. The
// channel closes when ctx is cancelled; in-flight notifications may be
// discarded at that point.
func (f *Feed) Subscribe(ctx context.Context, eventID string) (<-chan Notification, error) {
	sub := f.redis.Client.Subscribe(ctx, channelPrefix+eventID)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Notification)
	go func() {
		defer close(out)
		defer sub.Close() //nolint:errcheck

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var notification Notification
				if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
					f.logger.Warn("malformed realtime payload", zap.Error(err))
					continue
				}
				select {
				case out <- notification:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
