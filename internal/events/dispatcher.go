// Package events distributes tracker events to observers such as the
// WebSocket hub and the debug log.
package events

import (
	"context"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Event is one tracker event.
type Event struct {
	// Type is one of the Type* constants in messages.go.
	Type string

	// Data is the typed payload; see messages.go.
	Data any

	Context context.Context
}

// Observer is notified of dispatched events.
type Observer interface {
	// OnEvent handles one event. Errors are logged by the dispatcher.
	OnEvent(event Event) error

	// GetName returns a human-readable name for logging.
	GetName() string

	// ShouldHandle filters the event types the observer receives.
	ShouldHandle(eventType string) bool
}

// EventDispatcher fans events out to registered observers. A failing or
// panicking observer is logged and counted; it never reaches the tracker loop.
type EventDispatcher struct {
	mu        sync.RWMutex
	observers []Observer

	pending  sync.WaitGroup
	failures atomic.Uint64
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{}
}

// Register adds an observer. Observers are notified in registration order.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	d.observers = append(d.observers, observer)
	d.mu.Unlock()

	log.Printf("[EventDispatcher] Registered observer: %s", observer.GetName())
}

// Unregister removes observer. Unknown observers are ignored.
func (d *EventDispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.observers[:0]
	for _, obs := range d.observers {
		if obs != observer {
			kept = append(kept, obs)
		}
	}
	clear(d.observers[len(kept):])
	d.observers = kept
}

// interested copies the observers that want eventType so none is notified
// while the lock is held.
func (d *EventDispatcher) interested(eventType string) []Observer {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var observers []Observer
	for _, obs := range d.observers {
		if obs.ShouldHandle(eventType) {
			observers = append(observers, obs)
		}
	}
	return observers
}

func (d *EventDispatcher) notify(obs Observer, event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.failures.Add(1)
			log.Printf("[EventDispatcher] Observer %s panicked on %s: %v\n%s", obs.GetName(), event.Type, r, debug.Stack())
		}
	}()

	if err := obs.OnEvent(event); err != nil {
		d.failures.Add(1)
		log.Printf("[EventDispatcher] Observer %s failed on %s: %v", obs.GetName(), event.Type, err)
	}
}

// Dispatch notifies the interested observers one after another before
// returning.
func (d *EventDispatcher) Dispatch(event Event) {
	for _, obs := range d.interested(event.Type) {
		d.notify(obs, event)
	}
}

// DispatchAsync notifies each interested observer on its own goroutine.
func (d *EventDispatcher) DispatchAsync(event Event) {
	for _, obs := range d.interested(event.Type) {
		d.pending.Add(1)
		go func(obs Observer) {
			defer d.pending.Done()
			d.notify(obs, event)
		}(obs)
	}
}

// Wait blocks until every DispatchAsync notification has returned.
func (d *EventDispatcher) Wait() {
	d.pending.Wait()
}

func (d *EventDispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Failures counts observer errors and panics since creation.
func (d *EventDispatcher) Failures() uint64 {
	return d.failures.Load()
}

// NewTypedEvent creates an Event carrying data.
func NewTypedEvent[T any](ctx context.Context, eventType string, data T) Event {
	return Event{Type: eventType, Data: data, Context: ctx}
}

// GetTypedData extracts the payload of an Event. It reports false when the
// payload is missing or of another type.
func GetTypedData[T any](event Event) (T, bool) {
	typed, ok := event.Data.(T)
	return typed, ok
}
