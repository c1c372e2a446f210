package main

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/LoR-Companion/internal/charts"
	"github.com/ramonehamilton/LoR-Companion/internal/export"
	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

func exportHistory(ctx context.Context, store *storage.Service, path, format string, limit int, password string) error {
	history, err := export.BuildHistory(ctx, store, limit)
	if err != nil {
		return err
	}

	exporter := export.NewExporter(export.Options{
		Format:     export.Format(format),
		FilePath:   path,
		PrettyJSON: true,
		Overwrite:  true,
		Password:   password,
	})
	if err := exporter.Export(history); err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}

	fmt.Printf("Exported %d matches and %d decks to %s\n", len(history.Matches), len(history.Decks), path)
	return nil
}

func importHistory(ctx context.Context, store *storage.Service, path, password string) error {
	result, err := export.ImportFile(ctx, store, path, password)
	if err != nil {
		return fmt.Errorf("failed to import history: %w", err)
	}

	fmt.Printf("Imported %d matches and %d decks (%d already stored or empty, skipped)\n", result.Matches, result.Decks, result.Skipped)
	return nil
}

func writeReport(ctx context.Context, store *storage.Service, dir string, open bool) error {
	path, err := charts.WriteReport(ctx, store, dir, charts.ReportOptions{})
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("Report written to %s\n", path)

	if open {
		return charts.OpenInBrowser(path)
	}
	return nil
}
