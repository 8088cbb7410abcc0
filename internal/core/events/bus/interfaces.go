package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus for snapshot lifecycle events.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type string.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in subscription order.
// - Error aggregation: multiple handler errors are joined and returned from Publish.
//
// Handlers should be quick, a slow handler stalls the save or load that published the event.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type.
	Publish(event Event) error
	// Subscribe registers a handler for an event type and returns a Subscription
	// handle that can be used to cancel later.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error
	// GetMetrics returns a snapshot of the delivery counters.
	GetMetrics() EventBusMetrics
}

// Event types published for engine calls.
const (
	EventSaved      = "snapshot.saved"
	EventSaveFailed = "snapshot.save_failed"
	EventLoaded     = "snapshot.loaded"
	EventLoadFailed = "snapshot.load_failed"
)

// Event is one published message. Data holds a snapshot.SaveReport or a
// snapshot.LoadReport for the engine events; Err is set for the failure ones.
type Event struct {
	Type      string
	Session   string
	Timestamp time.Time
	Data      any
	Err       error
}

type (
	// EventHandler is invoked per delivered event. A returned error is
	// aggregated and handed back to the publisher.
	EventHandler func(event Event) error
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler from the bus. Multiple calls are safe.
	Cancel() error
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
