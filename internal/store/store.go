// Package store persists raw match telemetry in SQLite and loads it back
// as tracks, rosters and windows for playback.
//
// The schema is managed by golang-migrate from migrations embedded in the
// binary; call MigrateUp after Open.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/pitch.replay/internal/monitoring"
	"github.com/banshee-data/pitch.replay/internal/tracking"
)

// ErrNoSamples is returned when a window query finds no ball samples.
var ErrNoSamples = errors.New("no samples in window")

// Store wraps the telemetry database.
type Store struct {
	*sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
}

// Open opens (creating if needed) the database at path. The schema is not
// migrated.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return &Store{db}, nil
}

const sampleColumns = `frame_id, timestamp, entity_id, team_id, period, x, y, extra`

// InsertSamples stores samples for matchID in one transaction. A sample
// already stored for the same entity, period and frame is replaced.
func (s *Store) InsertSamples(ctx context.Context, matchID string, samples []tracking.Sample) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO samples (
		match_id, `+sampleColumns+`
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, smp := range samples {
		if smp.EntityID == "" {
			return fmt.Errorf("frame %d: %w", smp.FrameID, tracking.ErrEmptyEntityID)
		}
		var extra sql.NullString
		if len(smp.Extra) > 0 {
			b, err := json.Marshal(smp.Extra)
			if err != nil {
				return fmt.Errorf("encode extra for %q frame %d: %w", smp.EntityID, smp.FrameID, err)
			}
			extra = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, matchID,
			smp.FrameID, smp.Timestamp, smp.EntityID, smp.Group, smp.Period,
			smp.Position.X, smp.Position.Y, extra,
		); err != nil {
			return fmt.Errorf("insert %q frame %d: %w", smp.EntityID, smp.FrameID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	monitoring.Logf("[store] inserted %d samples for match %q", len(samples), matchID)
	return nil
}

// Matches returns every stored match id in sorted order.
func (s *Store) Matches(ctx context.Context) ([]string, error) {
	return s.column(ctx, `SELECT DISTINCT match_id FROM samples ORDER BY match_id`)
}

// Teams returns the team ids of a match in sorted order. The first is
// treated as the home team and the second as the away team.
func (s *Store) Teams(ctx context.Context, matchID string) ([]string, error) {
	return s.column(ctx, `SELECT DISTINCT team_id FROM samples
		WHERE match_id = ? AND team_id != '' AND entity_id != ?
		ORDER BY team_id`, matchID, tracking.BallID)
}

// Entities returns the entity ids recorded for a team of a match.
func (s *Store) Entities(ctx context.Context, matchID, team string) ([]string, error) {
	return s.column(ctx, `SELECT DISTINCT entity_id FROM samples
		WHERE match_id = ? AND team_id = ? AND entity_id != ?
		ORDER BY entity_id`, matchID, team, tracking.BallID)
}

// Periods returns the periods recorded for a match.
func (s *Store) Periods(ctx context.Context, matchID string) ([]int, error) {
	rows, err := s.QueryContext(ctx, `SELECT DISTINCT period FROM samples
		WHERE match_id = ? ORDER BY period`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadTrack returns the samples of one entity with frame ids in [from, to].
func (s *Store) LoadTrack(ctx context.Context, matchID, entityID string, from, to int64) (tracking.Track, error) {
	samples, err := s.query(ctx, `SELECT `+sampleColumns+` FROM samples
		WHERE match_id = ? AND entity_id = ? AND frame_id BETWEEN ? AND ?
		ORDER BY frame_id`, matchID, entityID, from, to)
	if err != nil {
		return tracking.Track{}, err
	}
	return tracking.NewTrack(entityID, samples)
}

// LoadWindow loads the ball and both rosters of a match period for frame
// ids in [fromFrame, toFrame].
func (s *Store) LoadWindow(ctx context.Context, matchID string, period int, fromFrame, toFrame int64) (tracking.Window, error) {
	samples, err := s.query(ctx, `SELECT `+sampleColumns+` FROM samples
		WHERE match_id = ? AND period = ? AND frame_id BETWEEN ? AND ?
		ORDER BY frame_id`, matchID, period, fromFrame, toFrame)
	if err != nil {
		return tracking.Window{}, err
	}
	return s.window(ctx, matchID, samples)
}

// LoadWindowByTime loads the ball and both rosters of a match period for
// timestamps in [fromSec, toSec].
func (s *Store) LoadWindowByTime(ctx context.Context, matchID string, period int, fromSec, toSec float64) (tracking.Window, error) {
	samples, err := s.query(ctx, `SELECT `+sampleColumns+` FROM samples
		WHERE match_id = ? AND period = ? AND timestamp BETWEEN ? AND ?
		ORDER BY frame_id`, matchID, period, fromSec, toSec)
	if err != nil {
		return tracking.Window{}, err
	}
	return s.window(ctx, matchID, samples)
}

func (s *Store) window(ctx context.Context, matchID string, samples []tracking.Sample) (tracking.Window, error) {
	teams, err := s.Teams(ctx, matchID)
	if err != nil {
		return tracking.Window{}, err
	}
	var home, away string
	if len(teams) > 0 {
		home = teams[0]
	}
	if len(teams) > 1 {
		away = teams[1]
	}

	var ball, homeRows, awayRows []tracking.Sample
	for _, smp := range samples {
		switch {
		case smp.IsBall():
			ball = append(ball, smp)
		case smp.Group == home:
			homeRows = append(homeRows, smp)
		case smp.Group == away:
			awayRows = append(awayRows, smp)
		}
	}
	if len(ball) == 0 {
		return tracking.Window{}, fmt.Errorf("match %q: %w", matchID, ErrNoSamples)
	}

	w := tracking.Window{MatchID: matchID}
	if w.Ball, err = tracking.NewTrack(tracking.BallID, ball); err != nil {
		return tracking.Window{}, err
	}
	if w.Home, err = tracking.NewRoster(home, homeRows); err != nil {
		return tracking.Window{}, err
	}
	if w.Away, err = tracking.NewRoster(away, awayRows); err != nil {
		return tracking.Window{}, err
	}
	return w, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]tracking.Sample, error) {
	rows, err := s.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tracking.Sample
	for rows.Next() {
		var (
			smp   tracking.Sample
			extra sql.NullString
		)
		if err := rows.Scan(&smp.FrameID, &smp.Timestamp, &smp.EntityID, &smp.Group,
			&smp.Period, &smp.Position.X, &smp.Position.Y, &extra); err != nil {
			return nil, err
		}
		if extra.Valid && strings.TrimSpace(extra.String) != "" {
			if err := json.Unmarshal([]byte(extra.String), &smp.Extra); err != nil {
				return nil, fmt.Errorf("decode extra for %q frame %d: %w", smp.EntityID, smp.FrameID, err)
			}
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

func (s *Store) column(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
