package events

import (
	"context"
	"fmt"
	"sync"
)

// EventHandler handles a published session event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans session events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	SubscribeAll(handler EventHandler)
}

// inMemoryDispatcher delivers on the publishing goroutine, so subscribers
// see events in the order the session emitted them.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	any       []EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
	}
}

// Publish runs the handlers for event.Type, then the catch-all handlers, and
// returns the first failure. Every handler runs regardless and a panicking
// handler is reported as an error instead of unwinding into the session.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := make([]EventHandler, 0, len(d.listeners[event.Type])+len(d.any))
	handlers = append(handlers, d.listeners[event.Type]...)
	handlers = append(handlers, d.any...)
	d.mu.RUnlock()

	var first error
	for _, handler := range handlers {
		if err := deliver(ctx, handler, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func deliver(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s handler panicked: %v", event.Type, r)
		}
	}()
	return handler(ctx, event)
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (d *inMemoryDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.any = append(d.any, handler)
}
