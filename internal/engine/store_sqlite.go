package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huntworks/cityhunt/internal/geo"
)

const timeLayout = "2006-01-02T15:04:05.999Z07:00"

// SQLiteStore implements Store over a libSQL/SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func (s *SQLiteStore) EventByID(ctx context.Context, id string) (Event, error) {
	var e Event
	var start string
	var tpl sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, start_time, render_template_id
		FROM events WHERE id = ?
	`, id).Scan(&e.ID, &e.Name, &start, &tpl)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	if e.StartTime, err = parseTime(start); err != nil {
		return e, fmt.Errorf("parsing event start time: %w", err)
	}
	e.RenderTemplateID = tpl.String
	return e, nil
}

func (s *SQLiteStore) TeamByID(ctx context.Context, id string) (Team, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, name, participants, status, current_station, total_score, completed_at
		FROM teams WHERE id = ?
	`, id)
	t, err := scanTeam(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func scanTeam(scan func(...any) error) (Team, error) {
	var t Team
	var participants string
	var current, completed sql.NullString
	if err := scan(&t.ID, &t.EventID, &t.Name, &participants, &t.Status, &current, &t.TotalScore, &completed); err != nil {
		return t, err
	}
	if err := json.Unmarshal([]byte(participants), &t.Participants); err != nil {
		return t, fmt.Errorf("decoding participants for team %s: %w", t.ID, err)
	}
	if t.Participants == nil {
		t.Participants = []string{}
	}
	if current.Valid {
		t.CurrentStation = &current.String
	}
	t.CompletedAt = parseTimePtr(completed)
	return t, nil
}

func (s *SQLiteStore) TeamsByEvent(ctx context.Context, eventID string) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, name, participants, status, current_station, total_score, completed_at
		FROM teams WHERE event_id = ? ORDER BY rowid
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		t, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) StationByID(ctx context.Context, id string) (Station, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, name, lat, lng, difficulty, estimated_minutes, station_type, capacity
		FROM stations WHERE id = ?
	`, id)
	st, err := scanStation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrNotFound
	}
	return st, err
}

func scanStation(scan func(...any) error) (Station, error) {
	var st Station
	var lat, lng sql.NullFloat64
	var capacity sql.NullInt64
	if err := scan(&st.ID, &st.EventID, &st.Name, &lat, &lng, &st.Difficulty, &st.EstimatedMinutes, &st.Type, &capacity); err != nil {
		return st, err
	}
	if lat.Valid && lng.Valid {
		st.Coord = &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		st.Capacity = &c
	}
	return st, nil
}

func (s *SQLiteStore) StationsByEvent(ctx context.Context, eventID string) ([]Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, name, lat, lng, difficulty, estimated_minutes, station_type, capacity
		FROM stations WHERE event_id = ? ORDER BY id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		st, err := scanStation(rows.Scan)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// ActiveMissionsByEvent returns the active mission per station, keyed by
// station ID. At most one mission per station is active at a time.
func (s *SQLiteStore) ActiveMissionsByEvent(ctx context.Context, eventID string) (map[string]Mission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, station_id, title, active
		FROM missions WHERE event_id = ? AND active = 1
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	missions := make(map[string]Mission)
	for rows.Next() {
		var m Mission
		var active int
		if err := rows.Scan(&m.ID, &m.EventID, &m.StationID, &m.Title, &active); err != nil {
			return nil, err
		}
		m.Active = active == 1
		missions[m.StationID] = m
	}
	return missions, rows.Err()
}

func (s *SQLiteStore) AssignmentsByTeam(ctx context.Context, teamID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, station_id, COALESCE(mission_id, ''), sequence_order
		FROM assignments WHERE team_id = ? ORDER BY sequence_order
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.TeamID, &a.StationID, &a.MissionID, &a.SequenceOrder); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *SQLiteStore) TravelOverrides(ctx context.Context, eventID string) (map[[2]string]geo.Override, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_station_id, to_station_id, distance_meters, minutes
		FROM travel_overrides WHERE event_id = ?
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[[2]string]geo.Override)
	for rows.Next() {
		var from, to string
		var o geo.Override
		if err := rows.Scan(&from, &to, &o.DistanceMeters, &o.Minutes); err != nil {
			return nil, err
		}
		overrides[[2]string{from, to}] = o
	}
	return overrides, rows.Err()
}

// SaveRoutes replaces the event's stored routes wholesale.
func (s *SQLiteStore) SaveRoutes(ctx context.Context, eventID string, routes []TeamRoute) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM team_routes WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	for _, route := range routes {
		blob, err := json.Marshal(route)
		if err != nil {
			return fmt.Errorf("encoding route for team %s: %w", route.TeamID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO team_routes (team_id, event_id, strategy, route)
			VALUES (?, ?, ?, ?)
		`, route.TeamID, eventID, string(route.Strategy), string(blob)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) RoutesByEvent(ctx context.Context, eventID string) ([]TeamRoute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT route FROM team_routes WHERE event_id = ? ORDER BY team_id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []TeamRoute
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var route TeamRoute
		if err := json.Unmarshal([]byte(blob), &route); err != nil {
			return nil, fmt.Errorf("decoding stored route: %w", err)
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

func (s *SQLiteStore) ProgressByTeam(ctx context.Context, teamID string) ([]Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, station_id, status, started_at, completed_at, score_earned, clips, notes
		FROM team_progress WHERE team_id = ? ORDER BY station_id
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProgress(rows)
}

func (s *SQLiteStore) ProgressByEvent(ctx context.Context, eventID string) ([]Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.team_id, p.station_id, p.status, p.started_at, p.completed_at, p.score_earned, p.clips, p.notes
		FROM team_progress p
		JOIN teams t ON t.id = p.team_id
		WHERE t.event_id = ?
		ORDER BY p.team_id, p.station_id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProgress(rows)
}

func collectProgress(rows *sql.Rows) ([]Progress, error) {
	var progress []Progress
	for rows.Next() {
		var p Progress
		var started, completed sql.NullString
		var clips string
		if err := rows.Scan(&p.TeamID, &p.StationID, &p.Status, &started, &completed, &p.ScoreEarned, &clips, &p.Notes); err != nil {
			return nil, err
		}
		p.StartedAt = parseTimePtr(started)
		p.CompletedAt = parseTimePtr(completed)
		if err := json.Unmarshal([]byte(clips), &p.Clips); err != nil {
			return nil, fmt.Errorf("decoding clips for team %s station %s: %w", p.TeamID, p.StationID, err)
		}
		if p.Clips == nil {
			p.Clips = []string{}
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

func (s *SQLiteStore) AssignmentCountsByEvent(ctx context.Context, eventID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.team_id, COUNT(*)
		FROM assignments a
		JOIN teams t ON t.id = a.team_id
		WHERE t.event_id = ?
		GROUP BY a.team_id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var teamID string
		var n int
		if err := rows.Scan(&teamID, &n); err != nil {
			return nil, err
		}
		counts[teamID] = n
	}
	return counts, rows.Err()
}

// StartStation upserts the progress row to in_progress and points the team at
// the station. A start on an already-terminal row is a no-op.
func (s *SQLiteStore) StartStation(ctx context.Context, teamID, stationID string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO team_progress (team_id, station_id, status, started_at)
		VALUES (?, ?, 'in_progress', ?)
		ON CONFLICT (team_id, station_id) DO UPDATE SET
			status = 'in_progress',
			started_at = excluded.started_at
		WHERE team_progress.status NOT IN ('completed', 'skipped')
	`, teamID, stationID, fmtTime(now)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE teams SET current_station = ? WHERE id = ?
	`, stationID, teamID); err != nil {
		return err
	}
	return tx.Commit()
}

// CompleteStation upserts the row to completed, recomputes the team's
// cumulative score from its completed rows, and flips the team to completed
// when every assigned station is done. One transaction: either all of it
// applies or none does.
func (s *SQLiteStore) CompleteStation(ctx context.Context, teamID, stationID string, scoreEarned int, clips []string, notes string, now time.Time) (CompletionResult, error) {
	var res CompletionResult

	clipsJSON, err := json.Marshal(clips)
	if err != nil {
		return res, fmt.Errorf("encoding clips: %w", err)
	}
	if clips == nil {
		clipsJSON = []byte("[]")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	// Re-completion overwrites the same row; the score recompute below keeps
	// the cumulative total drift-free under retries.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO team_progress (team_id, station_id, status, completed_at, score_earned, clips, notes)
		VALUES (?, ?, 'completed', ?, ?, ?, ?)
		ON CONFLICT (team_id, station_id) DO UPDATE SET
			status = 'completed',
			completed_at = COALESCE(team_progress.completed_at, excluded.completed_at),
			score_earned = excluded.score_earned,
			clips = excluded.clips,
			notes = excluded.notes
	`, teamID, stationID, fmtTime(now), scoreEarned, string(clipsJSON), notes); err != nil {
		return res, err
	}

	// Score and completed count only consider rows backed by an assignment,
	// so a stray progress row can never outrun the assigned set.
	if _, err := tx.ExecContext(ctx, `
		UPDATE teams SET total_score = (
			SELECT COALESCE(SUM(p.score_earned), 0)
			FROM team_progress p
			JOIN assignments a ON a.team_id = p.team_id AND a.station_id = p.station_id
			WHERE p.team_id = ? AND p.status = 'completed'
		) WHERE id = ?
	`, teamID, teamID); err != nil {
		return res, err
	}

	err = tx.QueryRowContext(ctx, `
		SELECT
			(SELECT total_score FROM teams WHERE id = ?),
			(SELECT COUNT(*)
			 FROM team_progress p
			 JOIN assignments a ON a.team_id = p.team_id AND a.station_id = p.station_id
			 WHERE p.team_id = ? AND p.status = 'completed'),
			(SELECT COUNT(*) FROM assignments WHERE team_id = ?)
	`, teamID, teamID, teamID).Scan(&res.TotalScore, &res.CompletedCount, &res.AssignedCount)
	if err != nil {
		return res, err
	}

	if res.AssignedCount > 0 && res.CompletedCount >= res.AssignedCount {
		res.TeamCompleted = true
		if _, err := tx.ExecContext(ctx, `
			UPDATE teams SET status = 'completed', completed_at = COALESCE(completed_at, ?)
			WHERE id = ?
		`, fmtTime(now), teamID); err != nil {
			return res, err
		}
	}

	return res, tx.Commit()
}

// SkipStation upserts directly to skipped with zero score. A completed row is
// terminal and stays completed.
func (s *SQLiteStore) SkipStation(ctx context.Context, teamID, stationID, reason string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_progress (team_id, station_id, status, completed_at, score_earned, notes)
		VALUES (?, ?, 'skipped', ?, 0, ?)
		ON CONFLICT (team_id, station_id) DO UPDATE SET
			status = 'skipped',
			completed_at = excluded.completed_at,
			score_earned = 0,
			notes = excluded.notes
		WHERE team_progress.status != 'completed'
	`, teamID, stationID, fmtTime(now), reason)
	return err
}
