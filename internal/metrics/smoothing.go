package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// movingAverage applies a centered moving average of the given odd window
// size. NaN samples (occluded positions) are excluded from each window
// mean; a window with no finite samples stays NaN. The ends of the series
// use the available half-window, so the output length equals the input
// length and no positions are invented beyond the observed range.
func movingAverage(vals []float64, window int) []float64 {
	if window <= 1 || len(vals) < 2 {
		out := make([]float64, len(vals))
		copy(out, vals)
		return out
	}
	half := window / 2

	out := make([]float64, len(vals))
	buf := make([]float64, 0, window)
	for i := range vals {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(vals)-1 {
			hi = len(vals) - 1
		}

		buf = buf[:0]
		for j := lo; j <= hi; j++ {
			if !math.IsNaN(vals[j]) {
				buf = append(buf, vals[j])
			}
		}
		if len(buf) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(buf, nil)
	}
	return out
}
