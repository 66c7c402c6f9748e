package realtime

import (
	"context"

	"hackspeech/internal/events"
)

// ForwardedEventTypes are pushed to the owning user's connections.
var ForwardedEventTypes = []string{
	events.TypeDetectionRecorded,
	events.TypeBadgeUnlocked,
	events.TypeChallengeCompleted,
	events.TypePointsAwarded,
}

// Subscribe registers the hub as an async handler for ForwardedEventTypes so
// socket writes stay off the publishing request.
func (h *Hub) Subscribe(bus events.EventBus) error {
	handler := events.NewEventHandlerFunc("realtime.forwarder", func(ctx context.Context, e events.Event) error {
		h.SendToUser(e.GetUserID(), Message{Type: e.GetEventType(), Data: e})
		return nil
	})

	for _, eventType := range ForwardedEventTypes {
		if err := bus.SubscribeAsync(eventType, handler); err != nil {
			return err
		}
	}
	return nil
}
