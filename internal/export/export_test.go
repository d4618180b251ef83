package export

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/pitchtrack/internal/metrics"
	"github.com/banshee-data/pitchtrack/internal/track"
)

func testFrames() []track.Frame {
	occluded := track.Frame{
		PeriodID: 1, FrameIndex: 2, GameClock: 0.08, WallClock: 1700000080,
		PlayerID: "p2", PlayerNumber: 10, Speed: 2.5,
		X: math.NaN(), Y: math.NaN(), Z: math.NaN(),
	}
	return []track.Frame{
		{PeriodID: 1, FrameIndex: 1, GameClock: 0.04, WallClock: 1700000040,
			PlayerID: "p1", PlayerNumber: 20, Speed: 4.8, X: 0.8, Y: 0.9, Z: 0},
		occluded,
		{PeriodID: 2, FrameIndex: 1, GameClock: 0.04, WallClock: 1700003000,
			PlayerID: "p1", PlayerNumber: 20, Speed: 1.2, X: -3, Y: 2, Z: 0},
	}
}

// nanEq treats NaN as equal to itself so occluded positions round-trip.
var nanEq = cmp.Comparer(func(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
})

func TestFramesCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.csv")
	frames := testFrames()

	if err := WriteFramesCSV(path, frames); err != nil {
		t.Fatalf("WriteFramesCSV failed: %v", err)
	}
	got, err := ReadFramesCSV(path)
	if err != nil {
		t.Fatalf("ReadFramesCSV failed: %v", err)
	}
	if diff := cmp.Diff(frames, got, nanEq); diff != "" {
		t.Errorf("frames did not round-trip (-want +got):\n%s", diff)
	}
}

func TestReadFramesCSVHeaderChecks(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"wrong column count", "period_id,frame_index\n"},
		{"missing timestamp column", "period_id,frame_index,game_clock,timestamp,player_id,player_number,speed,x,y,z\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.csv")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}
			_, err := ReadFramesCSV(path)
			var schemaErr *track.SchemaError
			if !errors.As(err, &schemaErr) {
				t.Errorf("expected SchemaError, got %v", err)
			}
		})
	}
}

func TestReadFramesCSVBadRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := strings.Join(frameHeader, ",") + "\n" +
		"1,notanumber,0.04,1,p1,20,1.0,0,0,0\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	_, err := ReadFramesCSV(path)
	var schemaErr *track.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestFramesParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.parquet")
	frames := testFrames()

	if err := WriteFramesParquet(path, frames); err != nil {
		t.Fatalf("WriteFramesParquet failed: %v", err)
	}
	got, err := ReadFramesParquet(path)
	if err != nil {
		t.Fatalf("ReadFramesParquet failed: %v", err)
	}
	if diff := cmp.Diff(frames, got, nanEq); diff != "" {
		t.Errorf("frames did not round-trip (-want +got):\n%s", diff)
	}
}

func TestPlayersParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.parquet")
	players := []track.Player{
		{TeamID: "home", PlayerID: "p1", Name: "Vanaken", Position: "CM", ShirtNumber: 20},
		{TeamID: "away", PlayerID: "p3", Name: "Balikwisha", Position: "LW", ShirtNumber: 10},
	}

	if err := WritePlayersParquet(path, players); err != nil {
		t.Fatalf("WritePlayersParquet failed: %v", err)
	}
	got, err := ReadPlayersParquet(path)
	if err != nil {
		t.Fatalf("ReadPlayersParquet failed: %v", err)
	}
	if diff := cmp.Diff(players, got); diff != "" {
		t.Errorf("players did not round-trip (-want +got):\n%s", diff)
	}
}

func TestWindowsParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "windows.parquet")
	rows := []metrics.WindowRow{
		{PlayerID: "p1", PeriodID: 1, Window: 0, StartClock: 0, EndClock: 299.96,
			Frames: 7500, DistanceM: 512.5, MeanSpeed: 1.7, MaxSpeed: 8.2, SprintCount: 2},
		{PlayerID: "p1", PeriodID: 1, Window: 1, StartClock: 300, EndClock: 599.96,
			Frames: 7500, DistanceM: 488.0, MeanSpeed: 1.6, MaxSpeed: 7.1, SprintCount: 1},
	}

	if err := WriteWindowsParquet(path, rows); err != nil {
		t.Fatalf("WriteWindowsParquet failed: %v", err)
	}
	got, err := ReadWindowsParquet(path)
	if err != nil {
		t.Fatalf("ReadWindowsParquet failed: %v", err)
	}
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("windows did not round-trip (-want +got):\n%s", diff)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	summary := &metrics.Summary{
		Distance: []metrics.DistanceRow{{PlayerID: "p1", DistanceM: 104.5}},
		Bands: []metrics.BandRow{
			{PlayerID: "p1", Band: "0-4", LowerMPS: 0, UpperMPS: 4, DistanceM: 80},
		},
		Accels:  []metrics.AccelRow{{PlayerID: "p1", Count: 3}},
		Windows: []metrics.WindowRow{{PlayerID: "p1", PeriodID: 1, Frames: 2}},
	}

	if err := WriteSummaryCSV(dir, summary); err != nil {
		t.Fatalf("WriteSummaryCSV failed: %v", err)
	}
	for _, name := range []string{"distance.csv", "bands.csv", "accels.csv", "windows.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Errorf("%s: expected header plus one row, got %d lines", name, len(lines))
		}
	}
}
