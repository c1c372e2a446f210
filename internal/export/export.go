// Package export writes and reads the match history as JSON or CSV, with
// optional password-based encryption.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

// Format represents the export format.
type Format string

const (
	// FormatCSV writes one row per match.
	FormatCSV Format = "csv"
	// FormatJSON writes the full history document.
	FormatJSON Format = "json"
)

// Options holds configuration for export operations.
type Options struct {
	Format     Format
	FilePath   string
	PrettyJSON bool
	Overwrite  bool

	// Password encrypts JSON output when set.
	Password string
}

// Exporter writes a history to a file.
type Exporter struct {
	opts Options
}

// NewExporter creates a new Exporter with the given options.
func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes the history in the configured format.
func (e *Exporter) Export(history *History) (err error) {
	file, err := e.createFile()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	switch e.opts.Format {
	case FormatJSON:
		if e.opts.Password == "" {
			return WriteHistory(file, history, e.opts.PrettyJSON)
		}
		return WriteEncryptedHistory(file, history, DefaultEncryptionConfig(e.opts.Password))
	case FormatCSV:
		return WriteMatchesCSV(file, history.Matches)
	default:
		return fmt.Errorf("unsupported export format: %s", e.opts.Format)
	}
}

// createFile creates the output file, handling overwrite settings.
func (e *Exporter) createFile() (*os.File, error) {
	dir := filepath.Dir(e.opts.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(e.opts.FilePath); err == nil && !e.opts.Overwrite {
		return nil, fmt.Errorf("file already exists: %s (use overwrite option to replace)", e.opts.FilePath)
	}

	file, err := os.Create(e.opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}

var csvHeader = []string{
	"id", "started_at", "player", "opponent", "result", "deck_code", "opponent_deck_code",
	"player_regions", "opponent_regions", "player_cards_used", "opponent_cards_used", "duration_seconds",
}

// WriteMatchesCSV writes one row per match.
func WriteMatchesCSV(w io.Writer, matches []MatchRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, record := range matches {
		m := record.Match
		if m == nil {
			continue
		}
		row := []string{
			m.ID,
			m.StartedAt.UTC().Format(time.RFC3339),
			m.Player,
			m.Opponent,
			m.Result,
			optional(m.DeckCode),
			optional(m.OpponentDeckCode),
			strings.Join(m.PlayerRegions, "|"),
			strings.Join(m.OpponentRegions, "|"),
			strconv.Itoa(m.PlayerCardsUsed),
			strconv.Itoa(m.OpponentCardsUsed),
			strconv.Itoa(m.DurationSeconds),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// compile-time check that storage.Service can back an export and an import.
var (
	_ HistorySource = (*storage.Service)(nil)
	_ HistorySink   = (*storage.Service)(nil)
)
