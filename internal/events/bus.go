package events

import (
	"github.com/kelindar/event"
)

// Bus wraps the kelindar/event dispatcher for pipeline event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(FrameDroppedEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event is generic over the concrete type, so dispatch through
	// a type switch.
	switch e := ev.(type) {
	case FrameDroppedEvent:
		event.Publish(b.dispatcher, e)
	case ProcessingErrorEvent:
		event.Publish(b.dispatcher, e)
	case ScaleLevelChangedEvent:
		event.Publish(b.dispatcher, e)
	case RampCompletedEvent:
		event.Publish(b.dispatcher, e)
	case EmergencyFallbackEvent:
		event.Publish(b.dispatcher, e)
	case ConfigUpdatedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler's
// parameter type determines which events it receives. Returns an
// unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e FrameDroppedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(FrameDroppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessingErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ScaleLevelChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RampCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EmergencyFallbackEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConfigUpdatedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// No-op unsubscribe for unrecognized handler types
		return func() {}
	}
}

// SubscribeToChannel bridges a subscription to a channel without blocking
// the dispatcher: events are dropped when the channel is full.
func SubscribeToChannel[T Event](b *Bus, ch chan<- any) func() {
	return event.Subscribe(b.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
