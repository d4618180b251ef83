package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/pitchtrack/internal/api"
	"github.com/banshee-data/pitchtrack/internal/config"
	"github.com/banshee-data/pitchtrack/internal/db"
	"github.com/banshee-data/pitchtrack/internal/units"
)

var (
	dbFile       = flag.String("db", "pitchtrack.db", "Path to sqlite database")
	listen       = flag.String("listen", ":8080", "Listen address")
	defaultUnits = flag.String("units", units.MPS, "Default speed units for API responses")
	migrations   = flag.String("migrations", "db/migrations", "Path to migration files")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*defaultUnits) {
		log.Fatalf("invalid units %q (valid: %s)", *defaultUnits, units.GetValidUnitsString())
	}

	cfg := config.MustLoadDefaultConfig()
	log.Printf("metrics config: fps=%.1f bands=%v", cfg.GetFPS(), cfg.GetSpeedBands())

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(*migrations); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)

		apiServer := api.NewServer(database, *defaultUnits)
		mux.Handle("/", apiServer.ServeMux())

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// Create a shutdown context with a timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
