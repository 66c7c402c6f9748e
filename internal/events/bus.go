package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// ===============================
// EVENT INTERFACE
// ===============================

// Event represents a domain event
type Event interface {
	GetEventID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetUserID() int64
}

// BaseEvent provides common event functionality
type BaseEvent struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"userId"`
}

func newBase(eventType string, userID int64) BaseEvent {
	return BaseEvent{
		EventID:   GenerateEventID(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
	}
}

func (e *BaseEvent) GetEventID() string      { return e.EventID }
func (e *BaseEvent) GetEventType() string    { return e.EventType }
func (e *BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *BaseEvent) GetUserID() int64        { return e.UserID }

// ===============================
// EVENT BUS INTERFACE
// ===============================

// EventBus defines the event publishing and subscription interface
type EventBus interface {
	// Publish runs inline handlers before returning and queues the event for
	// async handlers. Handler failures are logged, never returned to the
	// publisher, so a committed write is never reported as failed.
	Publish(ctx context.Context, event Event)

	// Subscribe registers a handler that runs inside Publish.
	Subscribe(pattern string, handler EventHandler) error
	// SubscribeAsync registers a handler that runs on the worker pool, detached
	// from the publisher's cancellation.
	SubscribeAsync(pattern string, handler EventHandler) error

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health() error
	Stats() *EventBusStats
}

// EventHandler represents an event handler
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
	GetHandlerID() string
}

// EventHandlerFunc is a function type that implements EventHandler
type EventHandlerFunc struct {
	ID   string
	Func func(ctx context.Context, event Event) error
}

func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f.Func(ctx, event)
}

func (f EventHandlerFunc) GetHandlerID() string {
	return f.ID
}

// EventBusStats represents event bus statistics
type EventBusStats struct {
	EventsPublished int64         `json:"eventsPublished"`
	EventsProcessed int64         `json:"eventsProcessed"`
	EventsFailed    int64         `json:"eventsFailed"`
	HandlersCount   int           `json:"handlersCount"`
	QueueDepth      int           `json:"queueDepth"`
	Uptime          time.Duration `json:"uptime"`
}

// ===============================
// IN-MEMORY EVENT BUS
// ===============================

type subscription struct {
	pattern string
	handler EventHandler
	async   bool
}

type inMemoryEventBus struct {
	mu             sync.RWMutex
	subscriptions  []subscription
	eventQueue     chan eventMessage
	logger         *zap.Logger
	startTime      time.Time
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	bufferSize     int
	workerCount    int
	handlerTimeout time.Duration

	published int64
	processed int64
	failed    int64
}

type eventMessage struct {
	ctx      context.Context
	event    Event
	handlers []EventHandler
}

// EventBusConfig holds configuration for the event bus
type EventBusConfig struct {
	BufferSize     int
	WorkerCount    int
	HandlerTimeout time.Duration
}

// DefaultEventBusConfig returns default configuration
func DefaultEventBusConfig() *EventBusConfig {
	return &EventBusConfig{
		BufferSize:     1000,
		WorkerCount:    4,
		HandlerTimeout: 10 * time.Second,
	}
}

// NewEventBus creates a new in-memory event bus
func NewEventBus(config *EventBusConfig, logger *zap.Logger) EventBus {
	if config == nil {
		config = DefaultEventBusConfig()
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &inMemoryEventBus{
		eventQueue:     make(chan eventMessage, config.BufferSize),
		logger:         logger,
		startTime:      time.Now(),
		ctx:            ctx,
		cancel:         cancel,
		bufferSize:     config.BufferSize,
		workerCount:    config.WorkerCount,
		handlerTimeout: config.HandlerTimeout,
	}
}

func (b *inMemoryEventBus) Publish(ctx context.Context, event Event) {
	if event == nil {
		return
	}

	b.logger.Debug("Publishing event",
		zap.String("event_id", event.GetEventID()),
		zap.String("event_type", event.GetEventType()),
		zap.Int64("user_id", event.GetUserID()),
	)

	atomic.AddInt64(&b.published, 1)
	inline, async := b.handlersFor(event.GetEventType())
	if len(inline) > 0 {
		b.process(ctx, event, inline)
	}
	if len(async) > 0 {
		b.enqueue(ctx, event, async)
	}
}

// enqueue hands the event to the workers. A full queue or a stopped bus
// drops the delivery; async handlers carry best-effort side effects only.
func (b *inMemoryEventBus) enqueue(ctx context.Context, event Event, handlers []EventHandler) {
	msg := eventMessage{ctx: context.WithoutCancel(ctx), event: event, handlers: handlers}

	select {
	case <-b.ctx.Done():
		atomic.AddInt64(&b.failed, 1)
		b.logger.Warn("Event bus stopped, async delivery dropped", zap.String("event_type", event.GetEventType()))
		return
	default:
	}

	select {
	case b.eventQueue <- msg:
	default:
		atomic.AddInt64(&b.failed, 1)
		b.logger.Warn("Event queue is full, async delivery dropped",
			zap.String("event_id", event.GetEventID()),
			zap.String("event_type", event.GetEventType()),
		)
	}
}

func (b *inMemoryEventBus) handlersFor(eventType string) (inline, async []EventHandler) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscriptions {
		if !matchesPattern(eventType, sub.pattern) {
			continue
		}
		if sub.async {
			async = append(async, sub.handler)
		} else {
			inline = append(inline, sub.handler)
		}
	}
	return inline, async
}

// Subscribe registers a handler for an exact event type, a prefix ending in *, or *.
func (b *inMemoryEventBus) Subscribe(pattern string, handler EventHandler) error {
	return b.subscribe(pattern, handler, false)
}

func (b *inMemoryEventBus) SubscribeAsync(pattern string, handler EventHandler) error {
	return b.subscribe(pattern, handler, true)
}

func (b *inMemoryEventBus) subscribe(pattern string, handler EventHandler, async bool) error {
	if pattern == "" {
		return fmt.Errorf("event pattern cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscriptions = append(b.subscriptions, subscription{pattern: pattern, handler: handler, async: async})

	b.logger.Info("Handler subscribed",
		zap.String("pattern", pattern),
		zap.String("handler_id", handler.GetHandlerID()),
		zap.Bool("async", async),
	)
	return nil
}

func (b *inMemoryEventBus) Start(ctx context.Context) error {
	b.logger.Info("Starting event bus", zap.Int("worker_count", b.workerCount))

	for i := 0; i < b.workerCount; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}
	return nil
}

func (b *inMemoryEventBus) Stop(ctx context.Context) error {
	b.logger.Info("Stopping event bus")
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus stopped successfully")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus stop timeout")
		return ctx.Err()
	}
}

func (b *inMemoryEventBus) Health() error {
	select {
	case <-b.ctx.Done():
		return fmt.Errorf("event bus is stopped")
	default:
	}

	queueDepth := len(b.eventQueue)
	if b.bufferSize > 0 && queueDepth > b.bufferSize*80/100 {
		return fmt.Errorf("event queue is %d%% full", queueDepth*100/b.bufferSize)
	}
	return nil
}

func (b *inMemoryEventBus) Stats() *EventBusStats {
	b.mu.RLock()
	handlers := len(b.subscriptions)
	b.mu.RUnlock()

	return &EventBusStats{
		EventsPublished: atomic.LoadInt64(&b.published),
		EventsProcessed: atomic.LoadInt64(&b.processed),
		EventsFailed:    atomic.LoadInt64(&b.failed),
		HandlersCount:   handlers,
		QueueDepth:      len(b.eventQueue),
		Uptime:          time.Since(b.startTime),
	}
}

func (b *inMemoryEventBus) worker(workerID int) {
	defer b.wg.Done()

	b.logger.Debug("Event bus worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case msg := <-b.eventQueue:
			b.process(msg.ctx, msg.event, msg.handlers)
		case <-b.ctx.Done():
			b.drain()
			b.logger.Debug("Event bus worker stopped", zap.Int("worker_id", workerID))
			return
		}
	}
}

// drain delivers what is already queued so a graceful stop loses nothing.
func (b *inMemoryEventBus) drain() {
	for {
		select {
		case msg := <-b.eventQueue:
			b.process(msg.ctx, msg.event, msg.handlers)
		default:
			return
		}
	}
}

func (b *inMemoryEventBus) process(ctx context.Context, event Event, handlers []EventHandler) {
	failed := false
	for _, handler := range handlers {
		if err := b.executeHandler(ctx, handler, event); err != nil {
			failed = true
			b.logger.Error("Event handler failed",
				zap.String("handler_id", handler.GetHandlerID()),
				zap.String("event_id", event.GetEventID()),
				zap.String("event_type", event.GetEventType()),
				zap.Error(err),
			)
		}
	}

	if failed {
		atomic.AddInt64(&b.failed, 1)
	} else {
		atomic.AddInt64(&b.processed, 1)
	}
}

// executeHandler executes a single handler with timeout and recovery
func (b *inMemoryEventBus) executeHandler(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	handlerCtx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
	defer cancel()

	return handler.Handle(handlerCtx, event)
}

func matchesPattern(eventType, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(eventType, strings.TrimSuffix(pattern, "*"))
	}

	return eventType == pattern
}

// ===============================
// UTILITY FUNCTIONS
// ===============================

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("evt_%d", time.Now().UnixNano())
	}
	return "evt_" + id.String()
}

// NewEventHandlerFunc creates an EventHandler from a function
func NewEventHandlerFunc(id string, fn func(ctx context.Context, event Event) error) EventHandler {
	return EventHandlerFunc{ID: id, Func: fn}
}
