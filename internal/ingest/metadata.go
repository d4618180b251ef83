// Package ingest loads Second Spectrum optical-tracking deliverables into
// validated in-memory tables. All schema and invariant checks happen here,
// once, at load time; downstream consumers can assume well-formed frames.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/banshee-data/pitchtrack/internal/track"
)

// metadataFile mirrors the vendor metadata.json layout. Pointer fields let
// us distinguish a missing key from a zero value when validating.
type metadataFile struct {
	Data *struct {
		HomeTeam    *metadataTeam `json:"homeTeam"`
		AwayTeam    *metadataTeam `json:"awayTeam"`
		PitchLength *float64      `json:"pitchLength"`
		PitchWidth  *float64      `json:"pitchWidth"`
		Description string        `json:"description"`
	} `json:"data"`
}

type metadataTeam struct {
	ID      *string `json:"id"`
	Players []struct {
		ID       *string `json:"id"`
		Name     string  `json:"name"`
		Position string  `json:"position"`
		Number   *int    `json:"number"`
	} `json:"players"`
}

// Metadata is the loaded match metadata: one Player row per player across
// both teams, plus the pitch dimensions used for bounds validation.
type Metadata struct {
	Description string
	Pitch       track.Pitch
	Players     []track.Player
}

// LoadMetadata parses a Second Spectrum metadata.json file and returns one
// row per player. Missing required keys produce a SchemaError.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta metadataFile
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &track.SchemaError{Msg: fmt.Sprintf("metadata is not valid JSON: %v", err)}
	}
	if meta.Data == nil {
		return nil, &track.SchemaError{Field: "data", Msg: "missing"}
	}
	if meta.Data.PitchLength == nil || meta.Data.PitchWidth == nil {
		return nil, &track.SchemaError{Field: "pitchLength/pitchWidth", Msg: "missing"}
	}

	out := &Metadata{
		Description: meta.Data.Description,
		Pitch: track.Pitch{
			Length: *meta.Data.PitchLength,
			Width:  *meta.Data.PitchWidth,
		},
	}

	for _, team := range []*metadataTeam{meta.Data.HomeTeam, meta.Data.AwayTeam} {
		if team == nil || team.ID == nil {
			return nil, &track.SchemaError{Field: "homeTeam/awayTeam", Msg: "missing team block or team id"}
		}
		for _, p := range team.Players {
			if p.ID == nil {
				return nil, &track.SchemaError{Field: "players.id", Msg: "missing player id"}
			}
			if p.Number == nil {
				return nil, &track.SchemaError{Field: "players.number", Msg: fmt.Sprintf("missing shirt number for player %s", *p.ID)}
			}
			out.Players = append(out.Players, track.Player{
				TeamID:      *team.ID,
				PlayerID:    *p.ID,
				Name:        p.Name,
				Position:    p.Position,
				ShirtNumber: *p.Number,
			})
		}
	}

	if len(out.Players) == 0 {
		return nil, &track.SchemaError{Field: "players", Msg: "no players in either team"}
	}

	return out, nil
}
