package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Tracker drives the per-station state machine:
// not_started -> in_progress -> completed | skipped. Terminal states stay put.
type Tracker struct {
	store       Store
	coordinator *Coordinator
	logger      *slog.Logger
}

func NewTracker(store Store, coordinator *Coordinator, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, coordinator: coordinator, logger: logger}
}

// Start marks the station in progress and points the team at it.
func (t *Tracker) Start(ctx context.Context, teamID, stationID string) error {
	if err := t.validatePair(ctx, teamID, stationID); err != nil {
		return err
	}
	if err := t.store.StartStation(ctx, teamID, stationID, time.Now()); err != nil {
		return fmt.Errorf("starting station: %w", err)
	}
	t.logger.Info("station started", "team_id", teamID, "station_id", stationID)
	return nil
}

// Complete marks the station completed, recomputes the team's cumulative score,
// and — when the last assigned station is done — flips the team to completed
// and hands off to the render coordinator. Retrying the same call converges to
// the same state; the score is a recomputed sum, never an increment.
func (t *Tracker) Complete(ctx context.Context, teamID, stationID string, scoreEarned int, clips []string, notes string) (CompletionResult, error) {
	if err := t.validatePair(ctx, teamID, stationID); err != nil {
		return CompletionResult{}, err
	}

	res, err := t.store.CompleteStation(ctx, teamID, stationID, scoreEarned, clips, notes, time.Now())
	if err != nil {
		return res, fmt.Errorf("completing station: %w", err)
	}

	t.logger.Info("station completed",
		"team_id", teamID,
		"station_id", stationID,
		"score_earned", scoreEarned,
		"completed", res.CompletedCount,
		"assigned", res.AssignedCount,
	)

	if res.TeamCompleted {
		team, err := t.store.TeamByID(ctx, teamID)
		if err == nil {
			t.coordinator.TriggerRender(ctx, team)
		} else {
			t.logger.Error("reloading completed team", "team_id", teamID, "error", err)
		}
	}
	return res, nil
}

// Skip marks the station skipped with zero score. Skipped stations do not count
// toward completion.
func (t *Tracker) Skip(ctx context.Context, teamID, stationID, reason string) error {
	if err := t.validatePair(ctx, teamID, stationID); err != nil {
		return err
	}
	if err := t.store.SkipStation(ctx, teamID, stationID, reason, time.Now()); err != nil {
		return fmt.Errorf("skipping station: %w", err)
	}
	t.logger.Info("station skipped", "team_id", teamID, "station_id", stationID, "reason", reason)
	return nil
}

// validatePair resolves both IDs and requires the station to be in the team's
// assignment set. Progress against unassigned stations would let the completed
// count outrun the assigned count.
func (t *Tracker) validatePair(ctx context.Context, teamID, stationID string) error {
	if _, err := t.store.TeamByID(ctx, teamID); err != nil {
		return err
	}
	if _, err := t.store.StationByID(ctx, stationID); err != nil {
		return err
	}
	assignments, err := t.store.AssignmentsByTeam(ctx, teamID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if a.StationID == stationID {
			return nil
		}
	}
	return ErrNotAssigned
}
