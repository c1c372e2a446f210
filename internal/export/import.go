package export

import (
	"context"
	"fmt"
	"os"
)

// ImportFile reads a plain or encrypted history file and stores it.
func ImportFile(ctx context.Context, sink HistorySink, path, password string) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = file.Close() }() //nolint:errcheck // Ignore error on cleanup

	history, err := ReadAnyHistory(file, password)
	if err != nil {
		return nil, err
	}
	return Import(ctx, sink, history)
}
