package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestNewTypedEvent(t *testing.T) {
	event := NewTypedEvent(context.Background(), TypeMatchStarted, MatchStartedEvent{
		GameID:   "abc",
		Player:   "Me",
		Opponent: "Them",
	})

	if event.Type != TypeMatchStarted {
		t.Errorf("Expected type '%s', got '%s'", TypeMatchStarted, event.Type)
	}

	data, ok := GetTypedData[MatchStartedEvent](event)
	if !ok {
		t.Fatal("Expected GetTypedData to succeed")
	}
	if data.GameID != "abc" || data.Opponent != "Them" {
		t.Errorf("unexpected payload %+v", data)
	}

	if _, ok := GetTypedData[MatchEndedEvent](event); ok {
		t.Error("Expected GetTypedData to fail for the wrong type")
	}
	if _, ok := GetTypedData[MatchEndedEvent](Event{Type: TypeMatchEnded}); ok {
		t.Error("Expected GetTypedData to fail for nil data")
	}
}

func TestDispatch_FiltersAndContinuesOnError(t *testing.T) {
	d := NewEventDispatcher()

	var got []string
	failing := &FuncObserver{Name: "failing", Fn: func(Event) error { return errors.New("boom") }}
	matches := &FuncObserver{
		Name:  "matches",
		Types: []string{TypeMatchStarted, TypeMatchEnded},
		Fn: func(e Event) error {
			got = append(got, e.Type)
			return nil
		},
	}

	d.Register(failing)
	d.Register(matches)
	d.Register(NewLoggingObserver(nil))

	if d.ObserverCount() != 3 {
		t.Fatalf("Expected 3 observers, got %d", d.ObserverCount())
	}

	d.Dispatch(Event{Type: TypeMatchStarted})
	d.Dispatch(Event{Type: TypeExpeditionUpdated})
	d.Dispatch(Event{Type: TypeMatchEnded})

	if len(got) != 2 || got[0] != TypeMatchStarted || got[1] != TypeMatchEnded {
		t.Errorf("Expected match events only, got %v", got)
	}

	if d.Failures() != 3 {
		t.Errorf("Expected 3 recorded failures, got %d", d.Failures())
	}

	d.Unregister(failing)
	if d.ObserverCount() != 2 {
		t.Errorf("Expected 2 observers after Unregister, got %d", d.ObserverCount())
	}
}

func TestDispatch_RecoversFromPanic(t *testing.T) {
	d := NewEventDispatcher()

	reached := false
	d.Register(&FuncObserver{Name: "panics", Fn: func(Event) error { panic("observer bug") }})
	d.Register(&FuncObserver{Name: "after", Fn: func(Event) error {
		reached = true
		return nil
	}})

	d.Dispatch(Event{Type: TypeMatchEnded})

	if !reached {
		t.Error("Expected observers after a panicking one to be notified")
	}
	if d.Failures() != 1 {
		t.Errorf("Expected 1 recorded failure, got %d", d.Failures())
	}
}

func TestLoggingObserver_Payloads(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := NewLoggingObserver(logger)

	_ = obs.OnEvent(NewTypedEvent(context.Background(), TypeCatalogReloaded, CatalogReloadedEvent{Cards: 42, Skipped: 1}))
	_ = obs.OnEvent(NewTypedEvent(context.Background(), TypeTrackerError, TrackerErrorEvent{Stage: "poll", Message: "refused"}))

	out := buf.String()
	for _, want := range []string{"type=catalog:reloaded", "cards=42", "skipped=1", "stage=poll", "error=refused"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q, got %s", want, out)
		}
	}
}

func TestDispatchAsync(t *testing.T) {
	d := NewEventDispatcher()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 3; i++ {
		d.Register(&FuncObserver{Name: "counter", Fn: func(Event) error {
			mu.Lock()
			defer mu.Unlock()
			count++
			return nil
		}})
	}

	d.DispatchAsync(Event{Type: TypeMatchUpdated})
	d.Wait()

	if count != 3 {
		t.Errorf("Expected 3 notifications, got %d", count)
	}
}
