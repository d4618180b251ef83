// Command report renders charts and per-player plots from a frames
// snapshot exported by the ingest command.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/pitchtrack/internal/config"
	"github.com/banshee-data/pitchtrack/internal/export"
	"github.com/banshee-data/pitchtrack/internal/metrics"
	"github.com/banshee-data/pitchtrack/internal/report"
	"github.com/banshee-data/pitchtrack/internal/track"
	"github.com/banshee-data/pitchtrack/internal/units"
)

func main() {
	var framesPath string
	var playersPath string
	var outDir string
	var configPath string
	var unit string
	var title string
	var timelines bool

	flag.StringVar(&framesPath, "frames", "", "path to frames parquet file")
	flag.StringVar(&playersPath, "players", "", "path to players parquet file")
	flag.StringVar(&outDir, "out", "report", "output directory")
	flag.StringVar(&configPath, "config", "", "metrics config file (defaults baked in)")
	flag.StringVar(&unit, "units", units.MPS, "speed units for rendered values")
	flag.StringVar(&title, "title", "Session report", "report title")
	flag.BoolVar(&timelines, "timelines", false, "also write per-player PNG timelines")
	flag.Parse()

	if framesPath == "" {
		log.Fatal("frames must be provided")
	}
	if !units.IsValid(unit) {
		log.Fatalf("invalid units %q (valid: %s)", unit, units.GetValidUnitsString())
	}

	var cfg *config.MetricsConfig
	if configPath != "" {
		var err error
		cfg, err = config.LoadMetricsConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	} else {
		cfg = config.MustLoadDefaultConfig()
	}

	frames, err := export.ReadFramesParquet(framesPath)
	if err != nil {
		log.Fatalf("failed to read frames: %v", err)
	}
	var players []track.Player
	if playersPath != "" {
		players, err = export.ReadPlayersParquet(playersPath)
		if err != nil {
			log.Fatalf("failed to read players: %v", err)
		}
	}

	engine := metrics.NewEngine(metrics.ConfigFromTuning(cfg))
	summary, err := engine.Summary(frames)
	if err != nil {
		log.Fatalf("failed to compute metrics: %v", err)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	if err := renderHTML(filepath.Join(outDir, "distance.html"), func(f *os.File) error {
		return report.RenderDistanceBar(f, title, players, summary.Distance, unit)
	}); err != nil {
		log.Fatalf("%v", err)
	}
	if err := renderHTML(filepath.Join(outDir, "bands.html"), func(f *os.File) error {
		return report.RenderSpeedBands(f, title, players, summary.Bands, unit)
	}); err != nil {
		log.Fatalf("%v", err)
	}

	if timelines {
		session := &track.Session{Description: title, Players: players, Frames: frames}
		if err := report.SaveSpeedTimelines(filepath.Join(outDir, "timelines"), session, engine); err != nil {
			log.Fatalf("failed to save timelines: %v", err)
		}
	}

	log.Printf("report written to %s", outDir)
}

func renderHTML(path string, render func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return render(f)
}
