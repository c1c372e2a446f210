package events

import (
	"log/slog"
	"slices"
)

// LoggingObserver writes every event to a structured logger at debug level,
// with the fields that matter for each payload type.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver logs to logger, or to slog.Default when nil.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger.With("component", "events")}
}

func (o *LoggingObserver) OnEvent(event Event) error {
	attrs := []any{"type", event.Type}

	switch data := event.Data.(type) {
	case MatchStartedEvent:
		attrs = append(attrs, "game", data.GameID, "opponent", data.Opponent, "deck", data.DeckCode)
	case MatchUpdatedEvent:
		attrs = append(attrs, "game", data.GameID,
			"new_player_cards", data.NewPlayerCards, "new_opponent_cards", data.NewOpponentCards)
	case MatchEndedEvent:
		attrs = append(attrs, "game", data.Snapshot.ID, "outcome", data.Snapshot.Outcome, "saved", data.Saved)
	case ExpeditionUpdatedEvent:
		if data.State != nil {
			attrs = append(attrs, "state", data.State.State, "record", data.State.Record)
		}
	case CatalogReloadedEvent:
		attrs = append(attrs, "cards", data.Cards, "skipped", data.Skipped)
	case TrackerErrorEvent:
		attrs = append(attrs, "stage", data.Stage, "error", data.Message)
	default:
		if event.Data != nil {
			attrs = append(attrs, "data", event.Data)
		}
	}

	o.logger.Debug("Event", attrs...)
	return nil
}

func (o *LoggingObserver) GetName() string {
	return "LoggingObserver"
}

func (o *LoggingObserver) ShouldHandle(string) bool {
	return true
}

// FuncObserver adapts a function to Observer, optionally restricted to a set
// of event types.
type FuncObserver struct {
	Name  string
	Types []string // empty: every type
	Fn    func(Event) error
}

func (o *FuncObserver) OnEvent(event Event) error {
	return o.Fn(event)
}

func (o *FuncObserver) GetName() string {
	return o.Name
}

func (o *FuncObserver) ShouldHandle(eventType string) bool {
	return len(o.Types) == 0 || slices.Contains(o.Types, eventType)
}
