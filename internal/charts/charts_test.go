package charts

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

func TestNewBarChart_NoData(t *testing.T) {
	if _, err := NewBarChart(nil, DefaultChartConfig()); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
	if _, err := NewLineChart([]SeriesData{{Name: "empty"}}, DefaultChartConfig()); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestRenderToFile(t *testing.T) {
	config := DefaultChartConfig()
	config.Title = "Region Usage"

	bar, err := NewBarChart(RegionSeries([]*storage.RegionStats{
		{Region: "Freljord", Matches: 4, Wins: 3, Losses: 1, WinRate: 0.75},
	}), config)
	if err != nil {
		t.Fatalf("failed to build chart: %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "regions.html")
	if err := RenderToFile(bar, path); err != nil {
		t.Fatalf("failed to render: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read chart: %v", err)
	}
	for _, want := range []string{"Region Usage", "Freljord", "Win Rate %"} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("expected chart to contain %q", want)
		}
	}
}

func TestRegionSeries(t *testing.T) {
	series := RegionSeries([]*storage.RegionStats{
		{Region: "Demacia", Matches: 3, WinRate: 2.0 / 3.0},
		{Region: "Noxus", Matches: 1, WinRate: 0},
	})

	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	if series[0].Points[0].Value != 3 {
		t.Errorf("expected 3 matches, got %v", series[0].Points[0].Value)
	}
	if series[1].Points[0].Value != 66.7 {
		t.Errorf("expected 66.7%%, got %v", series[1].Points[0].Value)
	}
}

func TestDeckSeries(t *testing.T) {
	decks := []*storage.Deck{
		{Code: "AAAA", Wins: 1, Losses: 0},
		{Code: "BBBBBBBBBBBB", Regions: []string{"Ionia", "Noxus"}, Wins: 3, Losses: 2},
		{Code: "CCCC"},
		{Code: "DDDD", Wins: 1, Losses: 1},
	}

	series := DeckSeries(decks, 2)
	points := series[0].Points
	if len(points) != 2 {
		t.Fatalf("expected 2 decks, got %d", len(points))
	}
	if points[0].Label != "Ionia/Noxus (BBBBBBBB...)" {
		t.Errorf("expected the most played deck first, got %q", points[0].Label)
	}
	if points[0].Value != 60 {
		t.Errorf("expected 60%%, got %v", points[0].Value)
	}
	if points[1].Label != "DDDD" {
		t.Errorf("expected DDDD second, got %q", points[1].Label)
	}
	if series[1].Points[0].Value != 5 {
		t.Errorf("expected 5 games, got %v", series[1].Points[0].Value)
	}
}

func TestTrendSeries(t *testing.T) {
	base := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	matches := []*storage.Match{
		{Result: storage.ResultWin, StartedAt: base.Add(3 * time.Hour)},
		{Result: storage.ResultUnknown, StartedAt: base.Add(2 * time.Hour)},
		{Result: storage.ResultLoss, StartedAt: base.Add(time.Hour)},
		{Result: storage.ResultWin, StartedAt: base},
	}

	points := TrendSeries(matches)[0].Points
	want := []float64{100, 50, 66.7}
	if len(points) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(points))
	}
	for i, w := range want {
		if points[i].Value != w {
			t.Errorf("point %d: expected %v, got %v", i, w, points[i].Value)
		}
	}
}

func TestWriteReport(t *testing.T) {
	store := storage.NewTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := WriteReport(ctx, store, dir, ReportOptions{}); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData for an empty history, got %v", err)
	}

	code := "CEAQCAIFAEAAA"
	base := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	for i, result := range []string{storage.ResultWin, storage.ResultLoss} {
		m := &storage.Match{
			ID:            string(rune('a' + i)),
			Result:        result,
			DeckCode:      &code,
			PlayerRegions: []string{"Shadow Isles"},
			StartedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.ImportMatch(ctx, m, nil); err != nil {
			t.Fatalf("failed to import match: %v", err)
		}
	}
	if err := store.ImportDeck(ctx, &storage.Deck{Code: code, Regions: []string{"Shadow Isles"}, Wins: 1, Losses: 1, LastPlayed: base}); err != nil {
		t.Fatalf("failed to import deck: %v", err)
	}

	path, err := WriteReport(ctx, store, dir, ReportOptions{})
	if err != nil {
		t.Fatalf("failed to write report: %v", err)
	}
	if filepath.Base(path) != "report.html" {
		t.Errorf("expected report.html, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	html := string(data)
	for _, want := range []string{"Region Usage", "Deck Win Rates", "Win Rate Trend", "Shadow Isles"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected report to contain %q", want)
		}
	}
}
