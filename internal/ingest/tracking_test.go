package ingest

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/pitchtrack/internal/track"
)

// Lines are deliberately out of frame order to exercise canonical sorting.
const sampleTracking = `{"period": 1, "frameIdx": 2, "gameClock": 0.08, "wallClock": 1700000080, "homePlayers": [{"playerId": "p1", "number": 20, "speed": 5.0, "xyz": [1.0, 1.0, 0.0]}], "awayPlayers": []}
{"period": 1, "frameIdx": 1, "gameClock": 0.04, "wallClock": 1700000040, "homePlayers": [{"playerId": "p1", "number": 20, "speed": 4.8, "xyz": [0.8, 0.9, 0.0]}], "awayPlayers": [{"playerId": "p3", "number": 10, "speed": 2.0, "xyz": null}]}
{"periodEnd": 1}
{"period": 2, "frameIdx": 1, "gameClock": 0.04, "wallClock": 1700003000, "homePlayers": [{"playerId": "p1", "number": 20, "speed": 1.2, "xyz": [-3.0, 2.0, 0.0]}], "awayPlayers": []}
`

func TestLoadTracking(t *testing.T) {
	frames, err := LoadTracking(writeTempFile(t, "tracking.jsonl", sampleTracking), DefaultOptions())
	if err != nil {
		t.Fatalf("LoadTracking failed: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("expected 4 player-frames, got %d", len(frames))
	}

	// canonical order: (period, frame, player)
	type key struct {
		period, frame int
		player        string
	}
	var got []key
	for _, f := range frames {
		got = append(got, key{f.PeriodID, f.FrameIndex, f.PlayerID})
	}
	want := []key{
		{1, 1, "p1"},
		{1, 1, "p3"},
		{1, 2, "p1"},
		{2, 1, "p1"},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(key{})); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}

	// the occluded away player carries NaN coordinates
	occluded := frames[1]
	if occluded.PlayerID != "p3" {
		t.Fatalf("expected p3 at index 1, got %s", occluded.PlayerID)
	}
	if occluded.HasPosition() {
		t.Errorf("expected occluded player to have no position, got (%v, %v, %v)", occluded.X, occluded.Y, occluded.Z)
	}
	if occluded.Speed != 2.0 {
		t.Errorf("occluded player keeps its speed, got %v", occluded.Speed)
	}
}

func TestLoadTrackingIdempotent(t *testing.T) {
	path := writeTempFile(t, "tracking.jsonl", sampleTracking)
	first, err := LoadTracking(path, DefaultOptions())
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	second, err := LoadTracking(path, DefaultOptions())
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	opt := cmp.Comparer(func(a, b float64) bool {
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	})
	if diff := cmp.Diff(first, second, opt); diff != "" {
		t.Errorf("loads differ (-first +second):\n%s", diff)
	}
}

func TestLoadTrackingSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing frameIdx", `{"period": 1, "gameClock": 0.04, "wallClock": 1, "homePlayers": [], "awayPlayers": []}`},
		{"missing gameClock", `{"period": 1, "frameIdx": 1, "wallClock": 1, "homePlayers": [], "awayPlayers": []}`},
		{"missing wallClock", `{"period": 1, "frameIdx": 1, "gameClock": 0.04, "homePlayers": [], "awayPlayers": []}`},
		{"missing playerId", `{"period": 1, "frameIdx": 1, "gameClock": 0.04, "wallClock": 1, "homePlayers": [{"number": 1, "speed": 1.0, "xyz": [0,0,0]}], "awayPlayers": []}`},
		{"missing speed", `{"period": 1, "frameIdx": 1, "gameClock": 0.04, "wallClock": 1, "homePlayers": [{"playerId": "p1", "number": 1, "xyz": [0,0,0]}], "awayPlayers": []}`},
		{"short xyz", `{"period": 1, "frameIdx": 1, "gameClock": 0.04, "wallClock": 1, "homePlayers": [{"playerId": "p1", "number": 1, "speed": 1.0, "xyz": [0,0]}], "awayPlayers": []}`},
		{"not json", `{broken`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTracking(writeTempFile(t, "tracking.jsonl", tt.line+"\n"), DefaultOptions())
			var schemaErr *track.SchemaError
			if !errors.As(err, &schemaErr) {
				t.Errorf("expected SchemaError, got %v", err)
			}
		})
	}
}

func TestLoadTrackingClockMonotonicity(t *testing.T) {
	// p1's clock jumps back 2s inside period 1, well past tolerance
	lines := strings.Join([]string{
		`{"period": 1, "frameIdx": 1, "gameClock": 10.0, "wallClock": 1, "homePlayers": [{"playerId": "p1", "number": 1, "speed": 1.0, "xyz": [0,0,0]}], "awayPlayers": []}`,
		`{"period": 1, "frameIdx": 2, "gameClock": 8.0, "wallClock": 2, "homePlayers": [{"playerId": "p1", "number": 1, "speed": 1.0, "xyz": [0,0,0]}], "awayPlayers": []}`,
	}, "\n")

	_, err := LoadTracking(writeTempFile(t, "tracking.jsonl", lines), DefaultOptions())
	var valErr *track.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if valErr.PlayerID != "p1" {
		t.Errorf("expected error to name p1, got %q", valErr.PlayerID)
	}
	if valErr.FirstFrame != 1 || valErr.LastFrame != 2 {
		t.Errorf("expected frame range 1-2, got %d-%d", valErr.FirstFrame, valErr.LastFrame)
	}
}

func TestLoadTrackingClockResetsAtPeriod(t *testing.T) {
	lines := strings.Join([]string{
		`{"period": 1, "frameIdx": 1, "gameClock": 2700.0, "wallClock": 1, "homePlayers": [{"playerId": "p1", "number": 1, "speed": 1.0, "xyz": [0,0,0]}], "awayPlayers": []}`,
		`{"period": 2, "frameIdx": 1, "gameClock": 0.04, "wallClock": 2, "homePlayers": [{"playerId": "p1", "number": 1, "speed": 1.0, "xyz": [0,0,0]}], "awayPlayers": []}`,
	}, "\n")

	if _, err := LoadTracking(writeTempFile(t, "tracking.jsonl", lines), DefaultOptions()); err != nil {
		t.Fatalf("period reset should not trip monotonicity: %v", err)
	}
}

func TestLoadTrackingJitterWithinTolerance(t *testing.T) {
	// one frame interval of backwards jitter at 25fps is 0.04s, inside the
	// default tolerance of 1.5 intervals
	lines := strings.Join([]string{
		`{"period": 1, "frameIdx": 1, "gameClock": 1.00, "wallClock": 1, "homePlayers": [{"playerId": "p1", "number": 1, "speed": 1.0, "xyz": [0,0,0]}], "awayPlayers": []}`,
		`{"period": 1, "frameIdx": 2, "gameClock": 0.96, "wallClock": 2, "homePlayers": [{"playerId": "p1", "number": 1, "speed": 1.0, "xyz": [0,0,0]}], "awayPlayers": []}`,
	}, "\n")

	if _, err := LoadTracking(writeTempFile(t, "tracking.jsonl", lines), DefaultOptions()); err != nil {
		t.Fatalf("jitter within tolerance should pass: %v", err)
	}
}

func TestLoadTrackingNegativeSpeed(t *testing.T) {
	line := `{"period": 1, "frameIdx": 1, "gameClock": 0.04, "wallClock": 1, "homePlayers": [{"playerId": "p1", "number": 1, "speed": -0.5, "xyz": [0,0,0]}], "awayPlayers": []}`
	_, err := LoadTracking(writeTempFile(t, "tracking.jsonl", line), DefaultOptions())
	var valErr *track.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLoadTrackingBounds(t *testing.T) {
	opts := DefaultOptions()
	opts.Pitch = track.Pitch{Length: 105, Width: 68}

	inside := `{"period": 1, "frameIdx": 1, "gameClock": 0.04, "wallClock": 1, "homePlayers": [{"playerId": "p1", "number": 1, "speed": 1.0, "xyz": [54.0, 0.0, 0.0]}], "awayPlayers": []}`
	if _, err := LoadTracking(writeTempFile(t, "in.jsonl", inside), opts); err != nil {
		t.Fatalf("position within buffered bounds should pass: %v", err)
	}

	outside := `{"period": 1, "frameIdx": 1, "gameClock": 0.04, "wallClock": 1, "homePlayers": [{"playerId": "p1", "number": 1, "speed": 1.0, "xyz": [60.0, 0.0, 0.0]}], "awayPlayers": []}`
	_, err := LoadTracking(writeTempFile(t, "out.jsonl", outside), opts)
	var valErr *track.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError for out-of-bounds position, got %v", err)
	}
}

func TestLoadSession(t *testing.T) {
	metaPath := writeTempFile(t, "metadata.json", sampleMetadata)
	trackPath := writeTempFile(t, "tracking.jsonl", sampleTracking)

	session, err := LoadSession(metaPath, trackPath, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if session.Pitch.Length != 105.0 {
		t.Errorf("pitch not wired from metadata: %+v", session.Pitch)
	}
	if len(session.Players) != 3 || len(session.Frames) != 4 {
		t.Errorf("unexpected session shape: %d players, %d frames", len(session.Players), len(session.Frames))
	}
}
