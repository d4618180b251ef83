// Command migrate manages the sqlite schema version.
package main

import (
	"flag"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/pitchtrack/internal/db"
)

func main() {
	var dbPath string
	var migrationsDir string
	var forceVersion int

	flag.StringVar(&dbPath, "db", "pitchtrack.db", "path to sqlite db")
	flag.StringVar(&migrationsDir, "migrations", "db/migrations", "path to migration files")
	flag.IntVar(&forceVersion, "force", -1, "force schema version without running migrations")
	flag.Parse()

	database, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	switch cmd {
	case "up":
		if err := database.MigrateUp(migrationsDir); err != nil {
			log.Fatalf("migrate up failed: %v", err)
		}
	case "down":
		if err := database.MigrateDown(migrationsDir); err != nil {
			log.Fatalf("migrate down failed: %v", err)
		}
	case "version":
		version, dirty, err := database.MigrateVersion(migrationsDir)
		if err != nil {
			log.Fatalf("migrate version failed: %v", err)
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
	case "force":
		if forceVersion < 0 {
			log.Fatal("force requires -force N")
		}
		if err := database.MigrateForce(migrationsDir, forceVersion); err != nil {
			log.Fatalf("migrate force failed: %v", err)
		}
	default:
		log.Fatalf("unknown command %q (want up, down, version, or force)", cmd)
	}
}
