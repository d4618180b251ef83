package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/banshee-data/pitchtrack/internal/config"
	"github.com/banshee-data/pitchtrack/internal/track"
)

// Options controls tracking ingestion. The zero value is not useful;
// construct with DefaultOptions or OptionsFromConfig.
type Options struct {
	// ChunkSize is the number of player-frame rows buffered between
	// progress reports. It bounds the working set the same way the feed
	// is consumed in production: line by line, flushed in batches.
	ChunkSize int

	// FPS is the nominal feed frame rate, used to derive the clock
	// tolerance interval.
	FPS float64

	// ClockTolerance is the allowed backwards game-clock movement within
	// a period, expressed as a fraction of one frame interval.
	ClockTolerance float64

	// Pitch enables coordinate bounds validation when non-zero.
	Pitch track.Pitch

	// PitchBuffer widens the accepted coordinate range beyond the
	// touchlines, in metres. Players legitimately overrun the lines.
	PitchBuffer float64
}

// DefaultOptions returns ingestion options matching the production feed.
func DefaultOptions() Options {
	return OptionsFromConfig(config.EmptyMetricsConfig())
}

// OptionsFromConfig builds Options from a tuning config.
func OptionsFromConfig(cfg *config.MetricsConfig) Options {
	return Options{
		ChunkSize:      cfg.GetChunkSize(),
		FPS:            cfg.GetFPS(),
		ClockTolerance: cfg.GetClockTolerance(),
		PitchBuffer:    cfg.GetPitchBuffer(),
	}
}

// trackingMessage mirrors one newline-delimited tracking message. Messages
// without a period field (periodEnd signals and the like) are skipped.
type trackingMessage struct {
	Period      *int             `json:"period"`
	FrameIdx    *int             `json:"frameIdx"`
	GameClock   *float64         `json:"gameClock"`
	WallClock   *int64           `json:"wallClock"`
	HomePlayers []trackingPlayer `json:"homePlayers"`
	AwayPlayers []trackingPlayer `json:"awayPlayers"`
}

type trackingPlayer struct {
	PlayerID *string   `json:"playerId"`
	Number   *int      `json:"number"`
	Speed    *float64  `json:"speed"`
	XYZ      []float64 `json:"xyz"`
}

// LoadTracking reads a newline-delimited tracking file and explodes it to
// player-frame rows in canonical (period, frame, player) order. The input
// file is never modified. Schema problems fail immediately with a
// SchemaError; invariant violations fail with a ValidationError after the
// full file has been read, so the error can name the offending player and
// frame range.
func LoadTracking(path string, opts Options) ([]track.Frame, error) {
	if opts.ChunkSize < 1 {
		opts.ChunkSize = DefaultOptions().ChunkSize
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking file: %w", err)
	}
	defer f.Close()

	var frames []track.Frame
	var lineNo, skipped, flushed int

	scanner := bufio.NewScanner(f)
	// Tracking lines carry 22+ player entries; the default 64K token
	// limit is too small for some vendor exports.
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg trackingMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, &track.SchemaError{Msg: fmt.Sprintf("line %d is not valid JSON: %v", lineNo, err)}
		}

		// skip non-tracking messages such as the "periodEnd" signal
		if msg.Period == nil {
			skipped++
			continue
		}
		if msg.FrameIdx == nil {
			return nil, &track.SchemaError{Field: "frameIdx", Msg: fmt.Sprintf("missing on line %d", lineNo)}
		}
		if msg.GameClock == nil {
			return nil, &track.SchemaError{Field: "gameClock", Msg: fmt.Sprintf("missing on line %d", lineNo)}
		}
		if msg.WallClock == nil {
			return nil, &track.SchemaError{Field: "wallClock", Msg: fmt.Sprintf("missing on line %d", lineNo)}
		}

		for _, side := range [][]trackingPlayer{msg.HomePlayers, msg.AwayPlayers} {
			for _, pl := range side {
				if pl.PlayerID == nil {
					return nil, &track.SchemaError{Field: "playerId", Msg: fmt.Sprintf("missing on line %d", lineNo)}
				}
				if pl.Speed == nil {
					return nil, &track.SchemaError{Field: "speed", Msg: fmt.Sprintf("missing for player %s on line %d", *pl.PlayerID, lineNo)}
				}

				x, y, z := math.NaN(), math.NaN(), math.NaN()
				switch len(pl.XYZ) {
				case 0:
					// occluded player, position unknown
				case 3:
					x, y, z = pl.XYZ[0], pl.XYZ[1], pl.XYZ[2]
				default:
					return nil, &track.SchemaError{Field: "xyz", Msg: fmt.Sprintf("expected 3 coordinates, got %d on line %d", len(pl.XYZ), lineNo)}
				}

				number := 0
				if pl.Number != nil {
					number = *pl.Number
				}

				frames = append(frames, track.Frame{
					PeriodID:     *msg.Period,
					FrameIndex:   *msg.FrameIdx,
					GameClock:    *msg.GameClock,
					WallClock:    *msg.WallClock,
					PlayerID:     *pl.PlayerID,
					PlayerNumber: number,
					Speed:        *pl.Speed,
					X:            x,
					Y:            y,
					Z:            z,
				})
			}
		}

		if len(frames)-flushed >= opts.ChunkSize {
			flushed = len(frames)
			log.Printf("ingest: %d lines read, %d player-frames buffered", lineNo, len(frames))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracking file: %w", err)
	}

	track.SortFrames(frames)

	if err := validateFrames(frames, opts); err != nil {
		return nil, err
	}

	log.Printf("ingest: done, %d lines (%d skipped), %d player-frames", lineNo, skipped, len(frames))
	return frames, nil
}

// validateFrames enforces the per-player invariants on sorted frames:
// game clock never runs backwards beyond tolerance inside a period,
// coordinates stay within the (buffered) pitch, speeds are non-negative.
func validateFrames(frames []track.Frame, opts Options) error {
	tol := opts.ClockTolerance / opts.FPS

	boundsCheck := opts.Pitch.Length > 0 && opts.Pitch.Width > 0
	maxX := opts.Pitch.Length/2 + opts.PitchBuffer
	maxY := opts.Pitch.Width/2 + opts.PitchBuffer

	type playerState struct {
		period    int
		clock     float64
		lastFrame int
	}
	last := make(map[string]*playerState)

	for _, f := range frames {
		if f.Speed < 0 {
			return &track.ValidationError{
				PlayerID:   f.PlayerID,
				FirstFrame: f.FrameIndex,
				LastFrame:  f.FrameIndex,
				Msg:        fmt.Sprintf("negative speed %.3f", f.Speed),
			}
		}
		if boundsCheck && f.HasPosition() {
			if math.Abs(f.X) > maxX || math.Abs(f.Y) > maxY {
				return &track.ValidationError{
					PlayerID:   f.PlayerID,
					FirstFrame: f.FrameIndex,
					LastFrame:  f.FrameIndex,
					Msg:        fmt.Sprintf("position (%.2f, %.2f) outside pitch bounds ±(%.2f, %.2f)", f.X, f.Y, maxX, maxY),
				}
			}
		}

		st, ok := last[f.PlayerID]
		if !ok {
			last[f.PlayerID] = &playerState{period: f.PeriodID, clock: f.GameClock, lastFrame: f.FrameIndex}
			continue
		}
		// the clock resets at period boundaries
		if f.PeriodID != st.period {
			st.period = f.PeriodID
			st.clock = f.GameClock
		} else {
			if f.GameClock < st.clock-tol {
				return &track.ValidationError{
					PlayerID:   f.PlayerID,
					FirstFrame: st.lastFrame,
					LastFrame:  f.FrameIndex,
					Msg:        fmt.Sprintf("game clock ran backwards: %.3f -> %.3f", st.clock, f.GameClock),
				}
			}
			if f.GameClock > st.clock {
				st.clock = f.GameClock
			}
		}
		st.lastFrame = f.FrameIndex
	}

	return nil
}

// LoadSession loads metadata and tracking together, wiring the pitch
// dimensions from the metadata into bounds validation.
func LoadSession(metadataPath, trackingPath string, opts Options) (*track.Session, error) {
	meta, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	opts.Pitch = meta.Pitch
	frames, err := LoadTracking(trackingPath, opts)
	if err != nil {
		return nil, err
	}

	return &track.Session{
		Description: meta.Description,
		Pitch:       meta.Pitch,
		Players:     meta.Players,
		Frames:      frames,
	}, nil
}
