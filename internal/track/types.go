// Package track defines the core value types for optical tracking data:
// player-frame records, player metadata, and the typed errors surfaced by
// the loaders and the metrics engine.
package track

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Frame is one timestamped position sample for one player. Frames are
// immutable once loaded; the metrics engine only ever reads them.
type Frame struct {
	PeriodID     int     `json:"period_id" parquet:"period_id"`
	FrameIndex   int     `json:"frame_index" parquet:"frame_index"`
	GameClock    float64 `json:"game_clock" parquet:"game_clock"`
	WallClock    int64   `json:"wall_clock" parquet:"wall_clock"`
	PlayerID     string  `json:"player_id" parquet:"player_id"`
	PlayerNumber int     `json:"player_number" parquet:"player_number"`
	Speed        float64 `json:"speed" parquet:"speed"`
	X            float64 `json:"x" parquet:"x"`
	Y            float64 `json:"y" parquet:"y"`
	Z            float64 `json:"z" parquet:"z"`
}

// WallTime converts the epoch-millisecond wall clock to a time.Time.
func (f Frame) WallTime() time.Time {
	return time.UnixMilli(f.WallClock)
}

// HasPosition reports whether the frame carries usable planar coordinates.
// Vendor feeds emit null positions for occluded players; those become NaN
// at load time.
func (f Frame) HasPosition() bool {
	return !math.IsNaN(f.X) && !math.IsNaN(f.Y)
}

// Player is one row of match metadata: a tracked player and the team they
// appeared for in this session.
type Player struct {
	TeamID      string `json:"team_id" parquet:"team_id"`
	PlayerID    string `json:"player_id" parquet:"player_id"`
	Name        string `json:"player_name" parquet:"player_name"`
	Position    string `json:"player_position" parquet:"player_position"`
	ShirtNumber int    `json:"player_number" parquet:"player_number"`
}

// Pitch describes the field coordinate system. Coordinates are metres from
// the pitch centre, so valid x is ±Length/2 and valid y is ±Width/2.
type Pitch struct {
	Length float64 `json:"pitch_length"`
	Width  float64 `json:"pitch_width"`
}

// Session is one loaded match: player metadata plus the full ordered set
// of player-frames across both teams.
type Session struct {
	ID          string
	Description string
	Pitch       Pitch
	Players     []Player
	Frames      []Frame
}

// SortFrames orders frames by (period, frame index, player id), the
// canonical ordering every downstream consumer assumes. The sort is
// stable so loading the same file twice yields identical output.
func SortFrames(frames []Frame) {
	sort.SliceStable(frames, func(i, j int) bool {
		a, b := frames[i], frames[j]
		if a.PeriodID != b.PeriodID {
			return a.PeriodID < b.PeriodID
		}
		if a.FrameIndex != b.FrameIndex {
			return a.FrameIndex < b.FrameIndex
		}
		return a.PlayerID < b.PlayerID
	})
}

// PlayerIDs returns the distinct player ids present in frames, sorted.
func PlayerIDs(frames []Frame) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, f := range frames {
		if !seen[f.PlayerID] {
			seen[f.PlayerID] = true
			ids = append(ids, f.PlayerID)
		}
	}
	sort.Strings(ids)
	return ids
}

// ByPlayer groups frames by player id, preserving the canonical frame
// ordering within each group.
func ByPlayer(frames []Frame) map[string][]Frame {
	groups := make(map[string][]Frame)
	for _, f := range frames {
		groups[f.PlayerID] = append(groups[f.PlayerID], f)
	}
	return groups
}

// Player returns the metadata row for the given player id.
func (s *Session) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return Player{}, false
}

func (p Player) String() string {
	return fmt.Sprintf("#%d %s (%s)", p.ShirtNumber, p.Name, p.Position)
}
