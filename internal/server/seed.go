package server

import (
	"context"
	"database/sql"
	"log/slog"
)

// SeedDemo creates a demo event with stations, missions, teams, and
// assignments if no events exist. Idempotent: does nothing otherwise.
func SeedDemo(ctx context.Context, logger *slog.Logger, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO events (id, name, start_time, render_template_id)
		  VALUES ('evt-demo', 'Lima Centro Hunt', '2026-03-14T10:00:00Z', 'tpl-highlights')`, nil},

		{`INSERT INTO stations (id, event_id, name, lat, lng, difficulty, estimated_minutes, station_type) VALUES
		  ('st-plaza',    'evt-demo', 'Plaza Mayor',        -12.0464, -77.0428, 1, 15, 'landmark'),
		  ('st-cathedral','evt-demo', 'Lima Cathedral',     -12.0459, -77.0297, 2, 20, 'museum'),
		  ('st-sanmartin','evt-demo', 'Plaza San Martin',   -12.0514, -77.0340, 2, 10, 'landmark'),
		  ('st-alameda',  'evt-demo', 'Alameda Chabuca',    -12.0432, -77.0453, 3, 25, 'park')`, nil},

		{`INSERT INTO missions (id, event_id, station_id, title, active) VALUES
		  ('ms-plaza',    'evt-demo', 'st-plaza',    'Find the bronze fountain', 1),
		  ('ms-cathedral','evt-demo', 'st-cathedral','Count the bell towers', 1),
		  ('ms-sanmartin','evt-demo', 'st-sanmartin','Photograph the liberator', 1),
		  ('ms-alameda',  'evt-demo', 'st-alameda',  'Record a river panorama', 1)`, nil},

		{`INSERT INTO teams (id, event_id, name, participants) VALUES
		  ('tm-incas',    'evt-demo', 'Los Incas',    '["Maria","Jose"]'),
		  ('tm-chasquis', 'evt-demo', 'Los Chasquis', '["Ana","Pedro"]')`, nil},

		{`INSERT INTO assignments (team_id, station_id, mission_id, sequence_order) VALUES
		  ('tm-incas',    'st-plaza',     'ms-plaza',     1),
		  ('tm-incas',    'st-cathedral', 'ms-cathedral', 2),
		  ('tm-incas',    'st-sanmartin', 'ms-sanmartin', 3),
		  ('tm-incas',    'st-alameda',   'ms-alameda',   4),
		  ('tm-chasquis', 'st-sanmartin', 'ms-sanmartin', 1),
		  ('tm-chasquis', 'st-cathedral', 'ms-cathedral', 2),
		  ('tm-chasquis', 'st-plaza',     'ms-plaza',     3),
		  ('tm-chasquis', 'st-alameda',   'ms-alameda',   4)`, nil},

		{`INSERT INTO travel_overrides (event_id, from_station_id, to_station_id, distance_meters, minutes)
		  VALUES ('evt-demo', 'st-plaza', 'st-alameda', 350, 5)`, nil},
	}

	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	logger.Info("demo event seeded", "event_id", "evt-demo")
	return nil
}
