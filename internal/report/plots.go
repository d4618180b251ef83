package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pitchtrack/internal/metrics"
	"github.com/banshee-data/pitchtrack/internal/track"
)

// SaveSpeedTimelines writes one PNG per player into outputDir: feed speed
// against game clock, with the cumulative distance trace on a second
// plot. File names are keyed by player id.
func SaveSpeedTimelines(outputDir string, session *track.Session, engine *metrics.Engine) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	groups := track.ByPlayer(session.Frames)
	for _, id := range track.PlayerIDs(session.Frames) {
		pf := groups[id]
		if len(pf) < 2 {
			continue
		}

		speedPts := make(plotter.XYs, 0, len(pf))
		for _, f := range pf {
			speedPts = append(speedPts, plotter.XY{X: f.GameClock, Y: f.Speed})
		}

		cum := engine.CumulativeDistance(pf)
		distPts := make(plotter.XYs, 0, len(pf))
		for i, f := range pf {
			distPts = append(distPts, plotter.XY{X: f.GameClock, Y: cum[i]})
		}

		label := playerLabel(session.Players, id)

		pSpeed := plot.New()
		pSpeed.Title.Text = fmt.Sprintf("%s speed", label)
		pSpeed.X.Label.Text = "game clock (s)"
		pSpeed.Y.Label.Text = "speed (m/s)"

		speedLine, err := plotter.NewLine(speedPts)
		if err != nil {
			return fmt.Errorf("failed to build speed line for %s: %w", id, err)
		}
		speedLine.Width = vg.Points(1)
		pSpeed.Add(speedLine)

		pDist := plot.New()
		pDist.Title.Text = fmt.Sprintf("%s cumulative distance", label)
		pDist.X.Label.Text = "game clock (s)"
		pDist.Y.Label.Text = "distance (m)"

		distLine, err := plotter.NewLine(distPts)
		if err != nil {
			return fmt.Errorf("failed to build distance line for %s: %w", id, err)
		}
		distLine.Width = vg.Points(1)
		pDist.Add(distLine)

		speedFile := filepath.Join(outputDir, fmt.Sprintf("%s_speed.png", id))
		if err := pSpeed.Save(14*vg.Inch, 6*vg.Inch, speedFile); err != nil {
			return fmt.Errorf("failed to save %s: %w", speedFile, err)
		}
		distFile := filepath.Join(outputDir, fmt.Sprintf("%s_distance.png", id))
		if err := pDist.Save(14*vg.Inch, 6*vg.Inch, distFile); err != nil {
			return fmt.Errorf("failed to save %s: %w", distFile, err)
		}
	}
	return nil
}
