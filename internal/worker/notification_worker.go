package worker

import (
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/realtime"
	"github.com/spec-kit/dispatch-service/internal/service"
)

// StartNotificationWorker registers the in-process consumers of domain
// events: operator notifications and the realtime dashboard feed.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, broadcaster *realtime.Broadcaster) {
	if dispatcher == nil {
		return
	}
	if notifications != nil {
		for _, eventType := range []events.EventType{
			events.EventEventCreated,
			events.EventDispatchIssued,
			events.EventDispatchResponded,
			events.EventMessagePosted,
			events.EventInviteCreated,
			events.EventProfileSynced,
		} {
			dispatcher.Subscribe(eventType, notifications.Notify)
		}
	}
	if broadcaster != nil {
		broadcaster.RegisterHandlers(dispatcher)
	}
}
