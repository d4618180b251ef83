// Package export writes loaded frames and computed metrics to columnar
// (Parquet) and plain CSV files, and reads them back. Exports are pure
// snapshots: writing never mutates the in-memory tables, and a write
// followed by a read reproduces row order and values exactly.
package export

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/banshee-data/pitchtrack/internal/metrics"
	"github.com/banshee-data/pitchtrack/internal/track"
)

// WriteFramesParquet writes the player-frame table to a Parquet file in
// canonical order.
func WriteFramesParquet(path string, frames []track.Frame) error {
	if err := parquet.WriteFile(path, frames); err != nil {
		return fmt.Errorf("failed to write frames parquet: %w", err)
	}
	return nil
}

// ReadFramesParquet reads a player-frame table written by
// WriteFramesParquet.
func ReadFramesParquet(path string) ([]track.Frame, error) {
	frames, err := parquet.ReadFile[track.Frame](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames parquet: %w", err)
	}
	return frames, nil
}

// WritePlayersParquet writes the player metadata table to a Parquet file.
func WritePlayersParquet(path string, players []track.Player) error {
	if err := parquet.WriteFile(path, players); err != nil {
		return fmt.Errorf("failed to write players parquet: %w", err)
	}
	return nil
}

// ReadPlayersParquet reads a player metadata table written by
// WritePlayersParquet.
func ReadPlayersParquet(path string) ([]track.Player, error) {
	players, err := parquet.ReadFile[track.Player](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read players parquet: %w", err)
	}
	return players, nil
}

// WriteWindowsParquet writes the windowed metric table to a Parquet file.
func WriteWindowsParquet(path string, rows []metrics.WindowRow) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write windows parquet: %w", err)
	}
	return nil
}

// ReadWindowsParquet reads a windowed metric table written by
// WriteWindowsParquet.
func ReadWindowsParquet(path string) ([]metrics.WindowRow, error) {
	rows, err := parquet.ReadFile[metrics.WindowRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read windows parquet: %w", err)
	}
	return rows, nil
}
