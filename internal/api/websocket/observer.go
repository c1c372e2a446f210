package websocket

import (
	"github.com/ramonehamilton/LoR-Companion/internal/events"
)

// Observer forwards dispatched events to WebSocket clients.
type Observer struct {
	hub   *Hub
	types map[string]bool
}

// NewObserver creates an observer for the given event types. With no types
// every event is forwarded.
func NewObserver(hub *Hub, eventTypes ...string) *Observer {
	o := &Observer{hub: hub}
	if len(eventTypes) > 0 {
		o.types = make(map[string]bool, len(eventTypes))
		for _, t := range eventTypes {
			o.types[t] = true
		}
	}
	return o
}

// OnEvent broadcasts the event payload. A stopped hub drops it silently.
func (o *Observer) OnEvent(event events.Event) error {
	if o.hub == nil {
		return nil
	}
	o.hub.BroadcastEvent(Event{Type: event.Type, Data: event.Data})
	return nil
}

// GetName returns the observer's name.
func (o *Observer) GetName() string {
	return "WebSocketObserver"
}

// ShouldHandle reports whether eventType is forwarded.
func (o *Observer) ShouldHandle(eventType string) bool {
	return o.types == nil || o.types[eventType]
}

var _ events.Observer = (*Observer)(nil)
