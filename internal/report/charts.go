// Package report renders computed metrics for humans: go-echarts HTML
// charts served by the API, and gonum/plot PNG timelines written to disk
// by the report command.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pitchtrack/internal/metrics"
	"github.com/banshee-data/pitchtrack/internal/track"
	"github.com/banshee-data/pitchtrack/internal/units"
)

// playerLabel prefers "#7 De Ketelaere" over a raw tracking id.
func playerLabel(players []track.Player, id string) string {
	for _, p := range players {
		if p.PlayerID == id {
			return fmt.Sprintf("#%d %s", p.ShirtNumber, p.Name)
		}
	}
	return id
}

// RenderDistanceBar writes an HTML bar chart of total distance per player.
// Distances are converted to the length unit paired with unit.
func RenderDistanceBar(w io.Writer, title string, players []track.Player, rows []metrics.DistanceRow, unit string) error {
	x := make([]string, 0, len(rows))
	y := make([]opts.BarData, 0, len(rows))
	for _, r := range rows {
		x = append(x, playerLabel(players, r.PlayerID))
		y = append(y, opts.BarData{Value: units.ConvertDistance(r.DistanceM, unit)})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "distance covered per player"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("distance", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.AddCharts(bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render distance chart: %w", err)
	}
	return nil
}

// RenderSpeedBands writes an HTML stacked bar chart splitting each
// player's distance into the configured speed zones.
func RenderSpeedBands(w io.Writer, title string, players []track.Player, rows []metrics.BandRow, unit string) error {
	// Preserve input ordering: players in row order, bands in lower-edge
	// order within each player.
	var ids []string
	var bandNames []string
	seenPlayer := make(map[string]bool)
	seenBand := make(map[string]bool)
	values := make(map[string]map[string]float64)

	for _, r := range rows {
		if !seenPlayer[r.PlayerID] {
			seenPlayer[r.PlayerID] = true
			ids = append(ids, r.PlayerID)
			values[r.PlayerID] = make(map[string]float64)
		}
		if !seenBand[r.Band] {
			seenBand[r.Band] = true
			bandNames = append(bandNames, r.Band)
		}
		values[r.PlayerID][r.Band] = r.DistanceM
	}

	x := make([]string, 0, len(ids))
	for _, id := range ids {
		x = append(x, playerLabel(players, id))
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "distance by speed band (m/s zones)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x)
	for _, band := range bandNames {
		y := make([]opts.BarData, 0, len(ids))
		for _, id := range ids {
			y = append(y, opts.BarData{Value: units.ConvertDistance(values[id][band], unit)})
		}
		bar.AddSeries(band, y, charts.WithBarChartOpts(opts.BarChart{Stack: "zones"}))
	}

	page := components.NewPage()
	page.AddCharts(bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render speed band chart: %w", err)
	}
	return nil
}
