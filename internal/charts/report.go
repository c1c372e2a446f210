package charts

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

// ReportSource is the slice of the storage service a report reads.
type ReportSource interface {
	GetRegionStats(ctx context.Context, filter storage.StatsFilter) ([]*storage.RegionStats, error)
	ListDecks(ctx context.Context, limit int) ([]*storage.Deck, error)
	GetRecentMatches(ctx context.Context, limit int) ([]*storage.Match, error)
}

var _ ReportSource = (*storage.Service)(nil)

// ReportOptions controls report generation.
type ReportOptions struct {
	MaxDecks   int // decks with the most games; default 15
	MaxMatches int // matches in the trend line; default 100
}

// RegionSeries converts region stats to "Matches" and "Win Rate %" series.
func RegionSeries(regions []*storage.RegionStats) []SeriesData {
	matches := SeriesData{Name: "Matches"}
	winRate := SeriesData{Name: "Win Rate %"}
	for _, r := range regions {
		matches.Points = append(matches.Points, DataPoint{Label: r.Region, Value: float64(r.Matches)})
		winRate.Points = append(winRate.Points, DataPoint{Label: r.Region, Value: percent(r.WinRate)})
	}
	return []SeriesData{matches, winRate}
}

// DeckLabel names a deck by its regions and a shortened code.
func DeckLabel(d *storage.Deck) string {
	code := d.Code
	if len(code) > 8 {
		code = code[:8] + "..."
	}
	if len(d.Regions) == 0 {
		return code
	}
	return fmt.Sprintf("%s (%s)", strings.Join(d.Regions, "/"), code)
}

// DeckSeries returns the win rate of the max decks with the most decided
// games, most played first. Decks without a decided game are skipped.
func DeckSeries(decks []*storage.Deck, max int) []SeriesData {
	played := make([]*storage.Deck, 0, len(decks))
	for _, d := range decks {
		if d.Wins+d.Losses > 0 {
			played = append(played, d)
		}
	}
	sort.SliceStable(played, func(i, j int) bool {
		return played[i].Wins+played[i].Losses > played[j].Wins+played[j].Losses
	})
	if max > 0 && len(played) > max {
		played = played[:max]
	}

	winRate := SeriesData{Name: "Win Rate %"}
	games := SeriesData{Name: "Games"}
	for _, d := range played {
		label := DeckLabel(d)
		winRate.Points = append(winRate.Points, DataPoint{Label: label, Value: percent(d.WinRate())})
		games.Points = append(games.Points, DataPoint{Label: label, Value: float64(d.Wins + d.Losses)})
	}
	return []SeriesData{winRate, games}
}

// TrendSeries computes the running win rate over matches, oldest first.
// Matches without a result are skipped.
func TrendSeries(matches []*storage.Match) []SeriesData {
	ordered := make([]*storage.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartedAt.Before(ordered[j].StartedAt)
	})

	trend := SeriesData{Name: "Win Rate %"}
	wins, decided := 0, 0
	for _, m := range ordered {
		switch m.Result {
		case storage.ResultWin:
			wins++
		case storage.ResultLoss:
		default:
			continue
		}
		decided++
		trend.Points = append(trend.Points, DataPoint{
			Label: m.StartedAt.Local().Format("01-02 15:04"),
			Value: percent(float64(wins) / float64(decided)),
		})
	}
	return []SeriesData{trend}
}

// BuildReport assembles every chart that has data into one page.
// It returns ErrNoData when nothing could be charted.
func BuildReport(ctx context.Context, src ReportSource, options ReportOptions) (*components.Page, error) {
	if options.MaxDecks <= 0 {
		options.MaxDecks = 15
	}
	if options.MaxMatches <= 0 {
		options.MaxMatches = 100
	}

	regions, err := src.GetRegionStats(ctx, storage.StatsFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load region stats: %w", err)
	}
	decks, err := src.ListDecks(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load decks: %w", err)
	}
	matches, err := src.GetRecentMatches(ctx, options.MaxMatches)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	page := components.NewPage()
	page.PageTitle = "LoR Companion Report"
	added := 0

	regionConfig := DefaultChartConfig()
	regionConfig.Title = "Region Usage"
	regionConfig.Subtitle = "Matches and win rate by player region"
	if bar, err := NewBarChart(RegionSeries(regions), regionConfig); err == nil {
		page.AddCharts(bar)
		added++
	}

	deckConfig := DefaultChartConfig()
	deckConfig.Title = "Deck Win Rates"
	deckConfig.Subtitle = fmt.Sprintf("Top %d decks by games played", options.MaxDecks)
	if bar, err := NewBarChart(DeckSeries(decks, options.MaxDecks), deckConfig); err == nil {
		page.AddCharts(bar)
		added++
	}

	trendConfig := DefaultChartConfig()
	trendConfig.Title = "Win Rate Trend"
	trendConfig.Subtitle = fmt.Sprintf("Running win rate over the last %d matches", options.MaxMatches)
	trendConfig.YAxisLabel = "%"
	trendConfig.ShowLegend = false
	if line, err := NewLineChart(TrendSeries(matches), trendConfig); err == nil {
		page.AddCharts(line)
		added++
	}

	if added == 0 {
		return nil, ErrNoData
	}
	return page, nil
}

// WriteReport builds the report and writes it to dir/report.html.
func WriteReport(ctx context.Context, src ReportSource, dir string, options ReportOptions) (string, error) {
	page, err := BuildReport(ctx, src, options)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "report.html")
	if err := RenderToFile(page, path); err != nil {
		return "", err
	}
	return path, nil
}
