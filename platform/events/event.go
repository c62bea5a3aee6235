// Package events carries domain events between modules over an
// in-process bus. Only the bus machinery lives here; the event
// definitions themselves belong to internal/events.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event published on the bus.
type Event interface {
	// EventName identifies the event type; subscriptions key on it.
	EventName() string
	// OccurredAt reports when the event happened.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all event types.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one registered type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish delivers the event to every handler registered for its
	// name. Handlers run asynchronously; their errors are logged by the
	// bus, not returned.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event inline and returns the first
	// handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the name reported by
	// Event.EventName.
	Subscribe(eventName string, handler Handler)
}
