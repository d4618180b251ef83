package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/banshee-data/pitchtrack/internal/metrics"
	"github.com/banshee-data/pitchtrack/internal/track"
)

var frameHeader = []string{
	"period_id", "frame_index", "game_clock", "wall_clock",
	"player_id", "player_number", "speed", "x", "y", "z",
}

// WriteFramesCSV writes the player-frame table as CSV with a header row.
// Coordinates of occluded players serialise as NaN and survive a
// round-trip through ReadFramesCSV.
func WriteFramesCSV(path string, frames []track.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(frameHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, fr := range frames {
		record := []string{
			strconv.Itoa(fr.PeriodID),
			strconv.Itoa(fr.FrameIndex),
			strconv.FormatFloat(fr.GameClock, 'g', -1, 64),
			strconv.FormatInt(fr.WallClock, 10),
			fr.PlayerID,
			strconv.Itoa(fr.PlayerNumber),
			strconv.FormatFloat(fr.Speed, 'g', -1, 64),
			strconv.FormatFloat(fr.X, 'g', -1, 64),
			strconv.FormatFloat(fr.Y, 'g', -1, 64),
			strconv.FormatFloat(fr.Z, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// ReadFramesCSV reads a player-frame table written by WriteFramesCSV.
func ReadFramesCSV(path string) ([]track.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, &track.SchemaError{Msg: "csv file has no header row"}
	}
	if len(records[0]) != len(frameHeader) {
		return nil, &track.SchemaError{Msg: fmt.Sprintf("expected %d columns, got %d", len(frameHeader), len(records[0]))}
	}
	for i, name := range frameHeader {
		if records[0][i] != name {
			return nil, &track.SchemaError{Field: name, Msg: fmt.Sprintf("expected column %d to be %q, got %q", i, name, records[0][i])}
		}
	}

	frames := make([]track.Frame, 0, len(records)-1)
	for n, rec := range records[1:] {
		fr, err := parseFrameRecord(rec)
		if err != nil {
			return nil, &track.SchemaError{Msg: fmt.Sprintf("row %d: %v", n+2, err)}
		}
		frames = append(frames, fr)
	}
	return frames, nil
}

func parseFrameRecord(rec []string) (track.Frame, error) {
	var fr track.Frame
	var err error

	if fr.PeriodID, err = strconv.Atoi(rec[0]); err != nil {
		return fr, fmt.Errorf("bad period_id %q", rec[0])
	}
	if fr.FrameIndex, err = strconv.Atoi(rec[1]); err != nil {
		return fr, fmt.Errorf("bad frame_index %q", rec[1])
	}
	if fr.GameClock, err = strconv.ParseFloat(rec[2], 64); err != nil {
		return fr, fmt.Errorf("bad game_clock %q", rec[2])
	}
	if fr.WallClock, err = strconv.ParseInt(rec[3], 10, 64); err != nil {
		return fr, fmt.Errorf("bad wall_clock %q", rec[3])
	}
	fr.PlayerID = rec[4]
	if fr.PlayerNumber, err = strconv.Atoi(rec[5]); err != nil {
		return fr, fmt.Errorf("bad player_number %q", rec[5])
	}
	if fr.Speed, err = strconv.ParseFloat(rec[6], 64); err != nil {
		return fr, fmt.Errorf("bad speed %q", rec[6])
	}
	if fr.X, err = strconv.ParseFloat(rec[7], 64); err != nil {
		return fr, fmt.Errorf("bad x %q", rec[7])
	}
	if fr.Y, err = strconv.ParseFloat(rec[8], 64); err != nil {
		return fr, fmt.Errorf("bad y %q", rec[8])
	}
	if fr.Z, err = strconv.ParseFloat(rec[9], 64); err != nil {
		return fr, fmt.Errorf("bad z %q", rec[9])
	}
	return fr, nil
}

// WriteSummaryCSV writes the four metric tables of a summary as separate
// CSV files in dir: distance.csv, bands.csv, accels.csv, windows.csv.
func WriteSummaryCSV(dir string, summary *metrics.Summary) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	writeTable := func(name string, header []string, rows [][]string) error {
		f, err := os.Create(dir + "/" + name)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return err
		}
		if err := w.WriteAll(rows); err != nil {
			return err
		}
		return w.Error()
	}

	var rows [][]string
	for _, r := range summary.Distance {
		rows = append(rows, []string{r.PlayerID, strconv.FormatFloat(r.DistanceM, 'g', -1, 64)})
	}
	if err := writeTable("distance.csv", []string{"player_id", "distance_m"}, rows); err != nil {
		return err
	}

	rows = nil
	for _, r := range summary.Bands {
		rows = append(rows, []string{
			r.PlayerID, r.Band,
			strconv.FormatFloat(r.LowerMPS, 'g', -1, 64),
			strconv.FormatFloat(r.UpperMPS, 'g', -1, 64),
			strconv.FormatFloat(r.DistanceM, 'g', -1, 64),
		})
	}
	if err := writeTable("bands.csv", []string{"player_id", "band", "lower_mps", "upper_mps", "distance_m"}, rows); err != nil {
		return err
	}

	rows = nil
	for _, r := range summary.Accels {
		rows = append(rows, []string{r.PlayerID, strconv.Itoa(r.Count)})
	}
	if err := writeTable("accels.csv", []string{"player_id", "n_accel"}, rows); err != nil {
		return err
	}

	rows = nil
	for _, r := range summary.Windows {
		rows = append(rows, []string{
			r.PlayerID,
			strconv.Itoa(r.PeriodID),
			strconv.Itoa(r.Window),
			strconv.FormatFloat(r.StartClock, 'g', -1, 64),
			strconv.FormatFloat(r.EndClock, 'g', -1, 64),
			strconv.Itoa(r.Frames),
			strconv.FormatFloat(r.DistanceM, 'g', -1, 64),
			strconv.FormatFloat(r.MeanSpeed, 'g', -1, 64),
			strconv.FormatFloat(r.MaxSpeed, 'g', -1, 64),
			strconv.Itoa(r.SprintCount),
		})
	}
	return writeTable("windows.csv", []string{
		"player_id", "period_id", "window", "start_clock", "end_clock",
		"frames", "distance_m", "mean_speed_mps", "max_speed_mps", "sprint_count",
	}, rows)
}
