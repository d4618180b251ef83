// Package metrics computes derived motion metrics from validated tracking
// frames: distance covered, distance split by speed band, explosive
// acceleration counts, and windowed per-player aggregates.
//
// All speeds are metres per second and all distances metres; unit
// conversion happens at the presentation edge (api, report), never here.
package metrics

import (
	"fmt"
	"math"

	"github.com/banshee-data/pitchtrack/internal/config"
	"github.com/banshee-data/pitchtrack/internal/track"
)

// SparsePolicy decides what happens to a player with fewer than two
// frames, where frame-to-frame quantities are undefined.
type SparsePolicy int

const (
	// SparseZero emits a zero-valued row for sparse players. This is the
	// default: a player who appears for one frame covered no measurable
	// distance.
	SparseZero SparsePolicy = iota

	// SparseError aborts the computation with a ComputationError naming
	// the sparse player.
	SparseError
)

// Config holds the tunable parameters of the engine.
type Config struct {
	FPS             float64
	WindowSeconds   float64
	Smoothing       bool
	SmoothingWindow int
	// SpeedBands are ascending lower edges in m/s; each band is
	// (edge, nextEdge] and the last band is open-ended.
	SpeedBands     []float64
	MinSprintSpeed float64
	MinAccel       float64
	Sparse         SparsePolicy
}

// DefaultConfig returns the production defaults (25 Hz feed, five-minute
// windows, the standard absolute speed zones).
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyMetricsConfig())
}

// ConfigFromTuning builds an engine Config from a tuning file config.
func ConfigFromTuning(cfg *config.MetricsConfig) Config {
	sparse := SparseZero
	if cfg.GetSparsePolicy() == "error" {
		sparse = SparseError
	}
	return Config{
		FPS:             cfg.GetFPS(),
		WindowSeconds:   cfg.GetWindowSeconds(),
		Smoothing:       cfg.GetSmoothing(),
		SmoothingWindow: cfg.GetSmoothingWindow(),
		SpeedBands:      cfg.GetSpeedBands(),
		MinSprintSpeed:  cfg.GetMinSprintSpeed(),
		MinAccel:        cfg.GetMinAccel(),
		Sparse:          sparse,
	}
}

// Engine computes metrics over immutable frame slices. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultConfig().FPS
	}
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = DefaultConfig().WindowSeconds
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// sparse handles a player with fewer than two frames according to policy.
// Returns (emitZeroRow, error).
func (e *Engine) sparse(playerID, metric string, n int) (bool, error) {
	if n >= 2 {
		return false, nil
	}
	if e.cfg.Sparse == SparseError {
		return false, &track.ComputationError{
			PlayerID: playerID,
			Metric:   metric,
			Msg:      fmt.Sprintf("need at least 2 frames, have %d", n),
		}
	}
	return true, nil
}

// stepDistances returns the per-frame planar displacement for one
// player's ordered frames. The first frame contributes zero (there is no
// previous position to difference against), and steps touching an
// occluded position contribute zero as well, so the cumulative sum is
// always defined and non-decreasing.
func (e *Engine) stepDistances(frames []track.Frame) []float64 {
	xs := make([]float64, len(frames))
	ys := make([]float64, len(frames))
	for i, f := range frames {
		xs[i], ys[i] = f.X, f.Y
	}
	if e.cfg.Smoothing {
		xs = movingAverage(xs, e.cfg.SmoothingWindow)
		ys = movingAverage(ys, e.cfg.SmoothingWindow)
	}

	steps := make([]float64, len(frames))
	for i := 1; i < len(frames); i++ {
		dx := xs[i] - xs[i-1]
		dy := ys[i] - ys[i-1]
		if math.IsNaN(dx) || math.IsNaN(dy) {
			continue
		}
		steps[i] = math.Hypot(dx, dy)
	}
	return steps
}

// TotalDistance computes metres covered per player across all frames.
// Output is ordered by player id, one row per player.
func (e *Engine) TotalDistance(frames []track.Frame) ([]DistanceRow, error) {
	groups := track.ByPlayer(frames)
	var out []DistanceRow

	for _, id := range track.PlayerIDs(frames) {
		pf := groups[id]
		if zero, err := e.sparse(id, "total_distance", len(pf)); err != nil {
			return nil, err
		} else if zero {
			out = append(out, DistanceRow{PlayerID: id})
			continue
		}

		var total float64
		for _, d := range e.stepDistances(pf) {
			total += d
		}
		out = append(out, DistanceRow{PlayerID: id, DistanceM: total})
	}
	return out, nil
}

// CumulativeDistance returns the running distance total across one
// player's ordered frames. Used by the report layer; the sequence is
// non-decreasing by construction.
func (e *Engine) CumulativeDistance(frames []track.Frame) []float64 {
	steps := e.stepDistances(frames)
	out := make([]float64, len(steps))
	var sum float64
	for i, d := range steps {
		sum += d
		out[i] = sum
	}
	return out
}

// DistanceBySpeedBand splits distance covered into absolute speed zones
// using the feed speed: distance = speed × dt for every frame whose speed
// falls in (lo, hi]. The last configured band is open-ended.
func (e *Engine) DistanceBySpeedBand(frames []track.Frame) ([]BandRow, error) {
	bands := e.bands()
	dt := 1.0 / e.cfg.FPS
	groups := track.ByPlayer(frames)
	var out []BandRow

	for _, id := range track.PlayerIDs(frames) {
		pf := groups[id]
		if zero, err := e.sparse(id, "distance_by_speed_band", len(pf)); err != nil {
			return nil, err
		} else if zero {
			for _, b := range bands {
				out = append(out, BandRow{PlayerID: id, Band: b.Label(), LowerMPS: b.Lo, UpperMPS: b.Hi})
			}
			continue
		}

		for _, b := range bands {
			var dist float64
			for _, f := range pf {
				if f.Speed > b.Lo && (math.IsInf(b.Hi, 1) || f.Speed <= b.Hi) {
					dist += f.Speed * dt
				}
			}
			out = append(out, BandRow{
				PlayerID:  id,
				Band:      b.Label(),
				LowerMPS:  b.Lo,
				UpperMPS:  b.Hi,
				DistanceM: dist,
			})
		}
	}
	return out, nil
}

// CountHighSpeedAccel counts explosive acceleration events per player.
// An event is logged on the rising edge of a run of frames where speed is
// at least MinSprintSpeed and instantaneous acceleration (Δspeed/dt) is
// at least MinAccel, so a sustained burst counts once.
func (e *Engine) CountHighSpeedAccel(frames []track.Frame) ([]AccelRow, error) {
	dt := 1.0 / e.cfg.FPS
	groups := track.ByPlayer(frames)
	var out []AccelRow

	for _, id := range track.PlayerIDs(frames) {
		pf := groups[id]
		if zero, err := e.sparse(id, "high_speed_accel", len(pf)); err != nil {
			return nil, err
		} else if zero {
			out = append(out, AccelRow{PlayerID: id})
			continue
		}

		count := 0
		prevQualified := false
		for i := 1; i < len(pf); i++ {
			accel := (pf[i].Speed - pf[i-1].Speed) / dt
			qualifies := pf[i].Speed >= e.cfg.MinSprintSpeed && accel >= e.cfg.MinAccel
			if qualifies && !prevQualified {
				count++
			}
			prevQualified = qualifies
		}
		out = append(out, AccelRow{PlayerID: id, Count: count})
	}
	return out, nil
}

// Summary computes every metric over one frame set.
func (e *Engine) Summary(frames []track.Frame) (*Summary, error) {
	distance, err := e.TotalDistance(frames)
	if err != nil {
		return nil, err
	}
	bands, err := e.DistanceBySpeedBand(frames)
	if err != nil {
		return nil, err
	}
	accels, err := e.CountHighSpeedAccel(frames)
	if err != nil {
		return nil, err
	}
	windows, err := e.WindowedMetrics(frames)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Distance: distance,
		Bands:    bands,
		Accels:   accels,
		Windows:  windows,
	}, nil
}

func (e *Engine) bands() []Band {
	edges := e.cfg.SpeedBands
	if len(edges) == 0 {
		edges = DefaultConfig().SpeedBands
	}
	bands := make([]Band, len(edges))
	for i, lo := range edges {
		hi := math.Inf(1)
		if i+1 < len(edges) {
			hi = edges[i+1]
		}
		bands[i] = Band{Lo: lo, Hi: hi}
	}
	return bands
}
