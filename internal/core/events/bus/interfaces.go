package bus

import "time"

// Bus is a thread-safe, in-process pub/sub bus for world lifecycle events.
//
// Key characteristics:
// - Kind-based fan-out: handlers subscribe by Event.Kind.
// - Synchronous delivery: Publish calls handlers in the publisher's goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Metrics are collected only while at least one observer is registered.
//
// Handlers should be quick; they run on the goroutine that owns the worlds.
type Bus interface {
	// Publish delivers the event to every active subscriber of event.Kind.
	Publish(event Event) error
	// Subscribe registers a handler for one kind and returns a handle to cancel it.
	Subscribe(kind Kind, handler Handler) (Subscription, error)
	// Unsubscribe cancels sub. It is safe to call with nil.
	Unsubscribe(sub Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// Metrics returns a snapshot of the accumulated counters.
	Metrics() Metrics
}

// Kind routes an event to its handlers.
type Kind string

const (
	// WorldRegistered fires once a world joined the live set and got its dimension.
	WorldRegistered Kind = "world.registered"
	// WorldRemoved fires after a world left the live set.
	WorldRemoved Kind = "world.removed"
	// WorldSaved fires for each world written by a save pass.
	WorldSaved Kind = "world.saved"
	// WorldLoadFailed fires when a persisted world could not be decoded or registered.
	WorldLoadFailed Kind = "world.load_failed"
)

// Event is an immutable lifecycle notification.
type Event struct {
	Kind        Kind
	Designation string
	// Dimension is zero when the world has none.
	Dimension int32
	Time      time.Time
	// Err is set for failure kinds.
	Err error
}

// NewEvent stamps an event with the current time.
func NewEvent(kind Kind, designation string, dimension int32) Event {
	return Event{Kind: kind, Designation: designation, Dimension: dimension, Time: time.Now()}
}

// Handler is invoked per delivered event. Returned errors are aggregated by Publish.
type Handler func(event Event) error

// Subscription represents a handler bound to one kind.
type Subscription interface {
	ID() string
	Kind() Kind
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is told about every publish. Implementations should return quickly.
type Observer interface {
	OnPublish(event Event)
	OnDelivered(kind Kind, handlers int, err error, took time.Duration)
}

type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
