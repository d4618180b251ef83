package metrics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pitchtrack/internal/track"
)

// WindowedMetrics aggregates per (player, period, window), where a window
// is a WindowSeconds-wide bucket of the game clock. Each frame belongs to
// the window of its own clock value; the step distance into frame i and
// any event logged at frame i are attributed to frame i's window.
func (e *Engine) WindowedMetrics(frames []track.Frame) ([]WindowRow, error) {
	dt := 1.0 / e.cfg.FPS
	groups := track.ByPlayer(frames)
	var out []WindowRow

	for _, id := range track.PlayerIDs(frames) {
		pf := groups[id]
		if zero, err := e.sparse(id, "windowed_metrics", len(pf)); err != nil {
			return nil, err
		} else if zero {
			row := WindowRow{PlayerID: id, Frames: len(pf)}
			if len(pf) == 1 {
				row.PeriodID = pf[0].PeriodID
				row.Window = e.windowIndex(pf[0].GameClock)
				row.StartClock = pf[0].GameClock
				row.EndClock = pf[0].GameClock
				row.MeanSpeed = pf[0].Speed
				row.MaxSpeed = pf[0].Speed
			}
			out = append(out, row)
			continue
		}

		steps := e.stepDistances(pf)

		type key struct {
			period, window int
		}
		type acc struct {
			frames   int
			distance float64
			speeds   []float64
			sprints  int
			start    float64
			end      float64
		}
		buckets := make(map[key]*acc)
		var order []key

		prevQualified := false
		for i, f := range pf {
			k := key{f.PeriodID, e.windowIndex(f.GameClock)}
			b, ok := buckets[k]
			if !ok {
				b = &acc{start: f.GameClock, end: f.GameClock}
				buckets[k] = b
				order = append(order, k)
			}
			b.frames++
			b.distance += steps[i]
			b.speeds = append(b.speeds, f.Speed)
			if f.GameClock < b.start {
				b.start = f.GameClock
			}
			if f.GameClock > b.end {
				b.end = f.GameClock
			}

			if i > 0 {
				accel := (f.Speed - pf[i-1].Speed) / dt
				qualifies := f.Speed >= e.cfg.MinSprintSpeed && accel >= e.cfg.MinAccel
				if qualifies && !prevQualified {
					b.sprints++
				}
				prevQualified = qualifies
			}
		}

		sort.Slice(order, func(i, j int) bool {
			if order[i].period != order[j].period {
				return order[i].period < order[j].period
			}
			return order[i].window < order[j].window
		})

		for _, k := range order {
			b := buckets[k]
			out = append(out, WindowRow{
				PlayerID:    id,
				PeriodID:    k.period,
				Window:      k.window,
				StartClock:  b.start,
				EndClock:    b.end,
				Frames:      b.frames,
				DistanceM:   b.distance,
				MeanSpeed:   stat.Mean(b.speeds, nil),
				MaxSpeed:    floats.Max(b.speeds),
				SprintCount: b.sprints,
			})
		}
	}
	return out, nil
}

func (e *Engine) windowIndex(gameClock float64) int {
	return int(gameClock / e.cfg.WindowSeconds)
}
