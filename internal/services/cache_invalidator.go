// file: internal/services/cache_invalidator.go
package services

import (
	"context"
	"fmt"

	"hackspeech/internal/cache"
	"hackspeech/internal/events"
)

// CacheInvalidator drops cached read models when the events they derive from occur.
type CacheInvalidator struct {
	loader *cache.Loader
}

func NewCacheInvalidator(loader *cache.Loader) *CacheInvalidator {
	return &CacheInvalidator{loader: loader}
}

// Subscribe registers the invalidator on every event type it reacts to.
func (c *CacheInvalidator) Subscribe(bus events.EventBus) error {
	handler := events.NewEventHandlerFunc("cache-invalidator", c.handle)
	for _, pattern := range []string{"detection.*", "progress.*", "badge.*", "challenge.*", events.TypeUserUpdated, events.TypeGuardianLinked} {
		if err := bus.Subscribe(pattern, handler); err != nil {
			return fmt.Errorf("failed to subscribe cache invalidator to %s: %w", pattern, err)
		}
	}
	return nil
}

// KeysFor lists the cache keys made stale by an event.
func (c *CacheInvalidator) KeysFor(event events.Event) []string {
	userID := event.GetUserID()

	switch event.GetEventType() {
	case events.TypeGuardianLinked:
		return []string{fmt.Sprintf("guardian:%d:*", userID)}
	case events.TypeUserUpdated:
		return []string{DashboardCacheKey(userID), "leaderboard:*", "guardian:*"}
	case events.TypeDetectionRecorded, events.TypeDetectionReformed:
		return []string{DashboardCacheKey(userID), "guardian:*"}
	case events.TypePointsAwarded, events.TypeBadgeUnlocked, events.TypeChallengeCompleted:
		return []string{DashboardCacheKey(userID), "leaderboard:*", "guardian:*"}
	default:
		return nil
	}
}

func (c *CacheInvalidator) handle(ctx context.Context, event events.Event) error {
	if keys := c.KeysFor(event); len(keys) > 0 {
		c.loader.Invalidate(ctx, keys...)
	}
	return nil
}
