// Command ingest loads a Second Spectrum metadata/tracking pair, computes
// the session metrics, and stores the results. Frames and metric tables
// can also be exported as Parquet and CSV snapshots.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/pitchtrack/internal/config"
	"github.com/banshee-data/pitchtrack/internal/db"
	"github.com/banshee-data/pitchtrack/internal/export"
	"github.com/banshee-data/pitchtrack/internal/ingest"
	"github.com/banshee-data/pitchtrack/internal/metrics"
)

func main() {
	var metadataPath string
	var trackingPath string
	var dbPath string
	var migrationsDir string
	var configPath string
	var exportDir string

	flag.StringVar(&metadataPath, "metadata", "", "path to metadata JSON file")
	flag.StringVar(&trackingPath, "tracking", "", "path to tracking JSONL file")
	flag.StringVar(&dbPath, "db", "pitchtrack.db", "path to sqlite db")
	flag.StringVar(&migrationsDir, "migrations", "db/migrations", "path to migration files")
	flag.StringVar(&configPath, "config", "", "metrics config file (defaults baked in)")
	flag.StringVar(&exportDir, "export", "", "directory for Parquet/CSV exports (skipped when empty)")
	flag.Parse()

	if metadataPath == "" || trackingPath == "" {
		log.Fatal("metadata and tracking must be provided")
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

	session, err := ingest.LoadSession(metadataPath, trackingPath, ingest.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatalf("failed to load session: %v", err)
	}
	log.Printf("loaded %d frames for %d players", len(session.Frames), len(session.Players))

	engine := metrics.NewEngine(metrics.ConfigFromTuning(cfg))
	summary, err := engine.Summary(session.Frames)
	if err != nil {
		log.Fatalf("failed to compute metrics: %v", err)
	}

	database, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(migrationsDir); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	id, err := database.SaveSession(session, summary)
	if err != nil {
		log.Fatalf("failed to save session: %v", err)
	}
	log.Printf("saved session %s", id)

	if exportDir == "" {
		return
	}

	if err := os.MkdirAll(exportDir, 0755); err != nil {
		log.Fatalf("failed to create export dir: %v", err)
	}
	if err := export.WriteFramesParquet(filepath.Join(exportDir, "frames.parquet"), session.Frames); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	if err := export.WritePlayersParquet(filepath.Join(exportDir, "players.parquet"), session.Players); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	if err := export.WriteWindowsParquet(filepath.Join(exportDir, "windows.parquet"), summary.Windows); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	if err := export.WriteFramesCSV(filepath.Join(exportDir, "frames.csv"), session.Frames); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	if err := export.WriteSummaryCSV(exportDir, summary); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	log.Printf("exports written to %s", exportDir)
}
