package metrics

import (
	"encoding/json"
	"fmt"
	"math"
)

// Band is one absolute speed zone, (Lo, Hi] in m/s. The last band of a
// set has Hi = +Inf.
type Band struct {
	Lo float64
	Hi float64
}

// Label renders the band the way analysts name zones: "5.5-7", or "7-"
// for the open-ended top band.
func (b Band) Label() string {
	if math.IsInf(b.Hi, 1) {
		return fmt.Sprintf("%g-", b.Lo)
	}
	return fmt.Sprintf("%g-%g", b.Lo, b.Hi)
}

// DistanceRow is total distance covered by one player.
type DistanceRow struct {
	PlayerID  string  `json:"player_id" parquet:"player_id"`
	DistanceM float64 `json:"distance_m" parquet:"distance_m"`
}

// BandRow is distance covered by one player within one speed band.
type BandRow struct {
	PlayerID  string  `json:"player_id" parquet:"player_id"`
	Band      string  `json:"band" parquet:"band"`
	LowerMPS  float64 `json:"lower_mps" parquet:"lower_mps"`
	UpperMPS  float64 `json:"upper_mps" parquet:"upper_mps"`
	DistanceM float64 `json:"distance_m" parquet:"distance_m"`
}

// bandRowJSON mirrors BandRow with a nullable upper bound. JSON has no
// +Inf, so the open-ended top band serialises upper_mps as null, the
// same convention the database uses.
type bandRowJSON struct {
	PlayerID  string   `json:"player_id"`
	Band      string   `json:"band"`
	LowerMPS  float64  `json:"lower_mps"`
	UpperMPS  *float64 `json:"upper_mps"`
	DistanceM float64  `json:"distance_m"`
}

func (r BandRow) MarshalJSON() ([]byte, error) {
	out := bandRowJSON{
		PlayerID:  r.PlayerID,
		Band:      r.Band,
		LowerMPS:  r.LowerMPS,
		DistanceM: r.DistanceM,
	}
	if !math.IsInf(r.UpperMPS, 1) {
		out.UpperMPS = &r.UpperMPS
	}
	return json.Marshal(out)
}

func (r *BandRow) UnmarshalJSON(data []byte) error {
	var in bandRowJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.PlayerID = in.PlayerID
	r.Band = in.Band
	r.LowerMPS = in.LowerMPS
	r.DistanceM = in.DistanceM
	if in.UpperMPS != nil {
		r.UpperMPS = *in.UpperMPS
	} else {
		r.UpperMPS = math.Inf(1)
	}
	return nil
}

// AccelRow is the number of explosive acceleration events for one player.
type AccelRow struct {
	PlayerID string `json:"player_id" parquet:"player_id"`
	Count    int    `json:"n_accel" parquet:"n_accel"`
}

// WindowRow is the per-(player, window) aggregate: one row per player per
// time bucket within a period.
type WindowRow struct {
	PlayerID    string  `json:"player_id" parquet:"player_id"`
	PeriodID    int     `json:"period_id" parquet:"period_id"`
	Window      int     `json:"window" parquet:"window"`
	StartClock  float64 `json:"start_clock" parquet:"start_clock"`
	EndClock    float64 `json:"end_clock" parquet:"end_clock"`
	Frames      int     `json:"frames" parquet:"frames"`
	DistanceM   float64 `json:"distance_m" parquet:"distance_m"`
	MeanSpeed   float64 `json:"mean_speed_mps" parquet:"mean_speed_mps"`
	MaxSpeed    float64 `json:"max_speed_mps" parquet:"max_speed_mps"`
	SprintCount int     `json:"sprint_count" parquet:"sprint_count"`
}

// Summary bundles every metric table computed over one session.
type Summary struct {
	Distance []DistanceRow `json:"distance"`
	Bands    []BandRow     `json:"bands"`
	Accels   []AccelRow    `json:"accels"`
	Windows  []WindowRow   `json:"windows"`
}
