// Package db provides the SQLite results store: the session registry,
// player metadata, and computed metric tables. Raw tracking frames are
// not persisted here; they live in the vendor files and Parquet exports,
// and metrics are recomputed from those.
package db

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/pitchtrack/internal/metrics"
	"github.com/banshee-data/pitchtrack/internal/track"
)

type DB struct {
	*sql.DB
	path string
}

// NewDB opens (or creates) the results database at path and applies the
// connection PRAGMAs. Schema management is the migrations' job; see
// MigrateUp.
func NewDB(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return &DB{DB: sqldb, path: path}, nil
}

// SessionInfo is one row of the session registry.
type SessionInfo struct {
	SessionID   string    `json:"session_id"`
	Description string    `json:"description"`
	PitchLength float64   `json:"pitch_length"`
	PitchWidth  float64   `json:"pitch_width"`
	FrameCount  int       `json:"frame_count"`
	PlayerCount int       `json:"player_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SaveSession stores a session and its computed metrics in one
// transaction. If the session carries no id, a fresh uuid is assigned.
// Returns the session id.
func (db *DB) SaveSession(s *track.Session, summary *metrics.Summary) (string, error) {
	id := s.ID
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, description, pitch_length, pitch_width, frame_count, player_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, s.Description, s.Pitch.Length, s.Pitch.Width, len(s.Frames), len(s.Players),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	for _, p := range s.Players {
		_, err = tx.Exec(
			`INSERT INTO players (session_id, team_id, player_id, player_name, player_position, player_number)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, p.TeamID, p.PlayerID, p.Name, p.Position, p.ShirtNumber,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert player %s: %w", p.PlayerID, err)
		}
	}

	for _, row := range summary.Distance {
		_, err = tx.Exec(
			`INSERT INTO distance_metrics (session_id, player_id, distance_m) VALUES (?, ?, ?)`,
			id, row.PlayerID, row.DistanceM,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert distance for %s: %w", row.PlayerID, err)
		}
	}

	for _, row := range summary.Bands {
		// SQLite has no +Inf; the open-ended top band stores NULL
		var upper interface{}
		if !math.IsInf(row.UpperMPS, 1) {
			upper = row.UpperMPS
		}
		_, err = tx.Exec(
			`INSERT INTO band_metrics (session_id, player_id, band, lower_mps, upper_mps, distance_m)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, row.PlayerID, row.Band, row.LowerMPS, upper, row.DistanceM,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert band row for %s: %w", row.PlayerID, err)
		}
	}

	for _, row := range summary.Accels {
		_, err = tx.Exec(
			`INSERT INTO accel_metrics (session_id, player_id, n_accel) VALUES (?, ?, ?)`,
			id, row.PlayerID, row.Count,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert accel row for %s: %w", row.PlayerID, err)
		}
	}

	for _, row := range summary.Windows {
		_, err = tx.Exec(
			`INSERT INTO window_metrics (session_id, player_id, period_id, win, start_clock, end_clock,
			   frames, distance_m, mean_speed, max_speed, sprint_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, row.PlayerID, row.PeriodID, row.Window, row.StartClock, row.EndClock,
			row.Frames, row.DistanceM, row.MeanSpeed, row.MaxSpeed, row.SprintCount,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert window row for %s: %w", row.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit session: %w", err)
	}
	return id, nil
}

// ListSessions returns the session registry, newest first.
func (db *DB) ListSessions() ([]SessionInfo, error) {
	rows, err := db.Query(
		`SELECT session_id, description, pitch_length, pitch_width, frame_count, player_count, created_at
		 FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var s SessionInfo
		if err := rows.Scan(&s.SessionID, &s.Description, &s.PitchLength, &s.PitchWidth,
			&s.FrameCount, &s.PlayerCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns one session registry row.
func (db *DB) GetSession(id string) (*SessionInfo, error) {
	var s SessionInfo
	err := db.QueryRow(
		`SELECT session_id, description, pitch_length, pitch_width, frame_count, player_count, created_at
		 FROM sessions WHERE session_id = ?`, id).
		Scan(&s.SessionID, &s.Description, &s.PitchLength, &s.PitchWidth,
			&s.FrameCount, &s.PlayerCount, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// Players returns the player metadata stored for a session, ordered by
// team then shirt number.
func (db *DB) Players(sessionID string) ([]track.Player, error) {
	rows, err := db.Query(
		`SELECT team_id, player_id, player_name, player_position, player_number
		 FROM players WHERE session_id = ? ORDER BY team_id, player_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []track.Player
	for rows.Next() {
		var p track.Player
		if err := rows.Scan(&p.TeamID, &p.PlayerID, &p.Name, &p.Position, &p.ShirtNumber); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// SessionSummary reassembles the full metric summary for a session from
// the metric tables.
func (db *DB) SessionSummary(sessionID string) (*metrics.Summary, error) {
	out := &metrics.Summary{}

	rows, err := db.Query(
		`SELECT player_id, distance_m FROM distance_metrics WHERE session_id = ? ORDER BY player_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query distance metrics: %w", err)
	}
	for rows.Next() {
		var r metrics.DistanceRow
		if err := rows.Scan(&r.PlayerID, &r.DistanceM); err != nil {
			rows.Close()
			return nil, err
		}
		out.Distance = append(out.Distance, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.Query(
		`SELECT player_id, band, lower_mps, upper_mps, distance_m
		 FROM band_metrics WHERE session_id = ? ORDER BY player_id, lower_mps`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query band metrics: %w", err)
	}
	for rows.Next() {
		var r metrics.BandRow
		var upper sql.NullFloat64
		if err := rows.Scan(&r.PlayerID, &r.Band, &r.LowerMPS, &upper, &r.DistanceM); err != nil {
			rows.Close()
			return nil, err
		}
		if upper.Valid {
			r.UpperMPS = upper.Float64
		} else {
			r.UpperMPS = math.Inf(1)
		}
		out.Bands = append(out.Bands, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.Query(
		`SELECT player_id, n_accel FROM accel_metrics WHERE session_id = ? ORDER BY player_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accel metrics: %w", err)
	}
	for rows.Next() {
		var r metrics.AccelRow
		if err := rows.Scan(&r.PlayerID, &r.Count); err != nil {
			rows.Close()
			return nil, err
		}
		out.Accels = append(out.Accels, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.Query(
		`SELECT player_id, period_id, win, start_clock, end_clock, frames, distance_m, mean_speed, max_speed, sprint_count
		 FROM window_metrics WHERE session_id = ? ORDER BY player_id, period_id, win`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query window metrics: %w", err)
	}
	for rows.Next() {
		var r metrics.WindowRow
		if err := rows.Scan(&r.PlayerID, &r.PeriodID, &r.Window, &r.StartClock, &r.EndClock,
			&r.Frames, &r.DistanceM, &r.MeanSpeed, &r.MaxSpeed, &r.SprintCount); err != nil {
			rows.Close()
			return nil, err
		}
		out.Windows = append(out.Windows, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// TopDistanceRow is one row of the distance leaderboard rollup.
type TopDistanceRow struct {
	PlayerID  string  `json:"player_id"`
	Name      string  `json:"player_name"`
	TeamID    string  `json:"team_id"`
	DistanceM float64 `json:"distance_m"`
}

// TopDistance returns the highest-distance players of a session, joined
// with player names.
func (db *DB) TopDistance(sessionID string, limit int) ([]TopDistanceRow, error) {
	rows, err := db.Query(
		`SELECT d.player_id, COALESCE(p.player_name, ''), COALESCE(p.team_id, ''), d.distance_m
		 FROM distance_metrics d
		 LEFT JOIN players p ON p.session_id = d.session_id AND p.player_id = d.player_id
		 WHERE d.session_id = ?
		 ORDER BY d.distance_m DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top distance: %w", err)
	}
	defer rows.Close()

	var out []TopDistanceRow
	for rows.Next() {
		var r TopDistanceRow
		if err := rows.Scan(&r.PlayerID, &r.Name, &r.TeamID, &r.DistanceM); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and all of its metric rows.
func (db *DB) DeleteSession(id string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"window_metrics", "accel_metrics", "band_metrics", "distance_metrics", "players", "sessions"} {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE session_id = ?", table), id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}
