package interfaces

import "context"

// EventType names the resolution lifecycle events carried on the bus
type EventType string

const (
	EventImageFound     EventType = "image_found"
	EventImageNotFound  EventType = "image_not_found"
	EventSearchProgress EventType = "search_progress"
	EventSearchDrained  EventType = "search_drained"
)

// Event pairs a type with its payload: an ImageResult for found/not-found,
// a SearchProgress snapshot for progress and drained.
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler handles a single delivered event
type EventHandler func(ctx context.Context, event Event) error

// EventService is the in-process pub/sub bus between the scheduler and the
// WebSocket layer
type EventService interface {
	// Subscribe registers a handler for an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Unsubscribe removes a previously registered handler
	Unsubscribe(eventType EventType, handler EventHandler) error

	// Publish delivers the event to subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync delivers the event and waits for all handlers
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the bus and drops all subscriptions
	Close() error
}
