// Package charts renders match history reports as interactive HTML.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ErrNoData is returned when a chart would be empty.
var ErrNoData = errors.New("no data to chart")

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string
	Subtitle   string
	YAxisLabel string
	Width      string // e.g. "900px"
	Height     string
	Theme      string
	ShowLegend bool
	Colors     []string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// DataPoint represents a single data point in a chart.
type DataPoint struct {
	Label string
	Value float64
}

// SeriesData is one named series. Every series of a chart shares the labels
// of the first one.
type SeriesData struct {
	Name   string
	Points []DataPoint
}

func globalOptions(config ChartConfig) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: config.Title,
			Width:     config.Width,
			Height:    config.Height,
			Theme:     config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: config.YAxisLabel,
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	}
}

func labels(points []DataPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Label
	}
	return out
}

// NewBarChart builds a grouped bar chart.
func NewBarChart(series []SeriesData, config ChartConfig) (*charts.Bar, error) {
	if len(series) == 0 || len(series[0].Points) == 0 {
		return nil, ErrNoData
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(config)...)
	bar.SetXAxis(labels(series[0].Points))

	for _, s := range series {
		data := make([]opts.BarData, len(s.Points))
		for i, p := range s.Points {
			data[i] = opts.BarData{Value: p.Value}
		}
		bar.AddSeries(s.Name, data)
	}
	bar.SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	return bar, nil
}

// NewLineChart builds a line chart.
func NewLineChart(series []SeriesData, config ChartConfig) (*charts.Line, error) {
	if len(series) == 0 || len(series[0].Points) == 0 {
		return nil, ErrNoData
	}

	line := charts.NewLine()
	line.SetGlobalOptions(globalOptions(config)...)
	line.SetXAxis(labels(series[0].Points))

	for _, s := range series {
		data := make([]opts.LineData, len(s.Points))
		for i, p := range s.Points {
			data[i] = opts.LineData{Value: p.Value}
		}
		line.AddSeries(s.Name, data)
	}
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
	)

	return line, nil
}

// renderer is implemented by every go-echarts chart and page.
type renderer interface {
	Render(w io.Writer) error
}

// RenderToFile writes a chart or page to outputPath, creating parent
// directories as needed.
func RenderToFile(r renderer, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := r.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// percent converts a 0..1 rate to a percentage with one decimal.
func percent(rate float64) float64 {
	return math.Round(rate*1000) / 10
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
