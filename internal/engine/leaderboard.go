package engine

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Standing is one team's ranked position in an event.
type Standing struct {
	Team              Team       `json:"team"`
	CompletedStations int        `json:"completedStations"`
	TotalScore        int        `json:"totalScore"`
	CompletionTime    *time.Time `json:"completionTime,omitempty"`
	Rank              int        `json:"rank"`
}

// EventStatus is the organizer-dashboard rollup for an event.
type EventStatus struct {
	TotalTeams             int            `json:"totalTeams"`
	ActiveTeams            int            `json:"activeTeams"`
	CompletedTeams         int            `json:"completedTeams"`
	AverageProgressPercent float64        `json:"averageProgressPercent"`
	CurrentlyPlayingTeams  int            `json:"currentlyPlayingTeams"`
	StationUtilization     map[string]int `json:"stationUtilizationByStationId"`
}

// Leaderboard ranks all teams in an event from progress snapshots.
type Leaderboard struct {
	store  Store
	logger *slog.Logger
}

func NewLeaderboard(store Store, logger *slog.Logger) *Leaderboard {
	return &Leaderboard{store: store, logger: logger}
}

// Standings sorts completed teams first, then score descending, then earlier
// completion. Non-completed ties keep store order; rank is the 1-based
// position after the sort.
func (l *Leaderboard) Standings(ctx context.Context, eventID string) ([]Standing, error) {
	if _, err := l.store.EventByID(ctx, eventID); err != nil {
		return nil, err
	}
	teams, err := l.store.TeamsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	progress, err := l.store.ProgressByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	completedCount := make(map[string]int)
	for _, p := range progress {
		if p.Status == StatusCompleted {
			completedCount[p.TeamID]++
		}
	}

	standings := make([]Standing, 0, len(teams))
	for _, t := range teams {
		standings = append(standings, Standing{
			Team:              t,
			CompletedStations: completedCount[t.ID],
			TotalScore:        t.TotalScore,
			CompletionTime:    t.CompletedAt,
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		aDone := a.Team.Status == TeamCompleted
		bDone := b.Team.Status == TeamCompleted
		if aDone != bDone {
			return aDone
		}
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if aDone && a.CompletionTime != nil && b.CompletionTime != nil {
			return a.CompletionTime.Before(*b.CompletionTime)
		}
		return false
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, nil
}

// Status computes the event dashboard rollup.
func (l *Leaderboard) Status(ctx context.Context, eventID string) (EventStatus, error) {
	if _, err := l.store.EventByID(ctx, eventID); err != nil {
		return EventStatus{}, err
	}
	teams, err := l.store.TeamsByEvent(ctx, eventID)
	if err != nil {
		return EventStatus{}, err
	}
	progress, err := l.store.ProgressByEvent(ctx, eventID)
	if err != nil {
		return EventStatus{}, err
	}
	assigned, err := l.store.AssignmentCountsByEvent(ctx, eventID)
	if err != nil {
		return EventStatus{}, err
	}

	status := EventStatus{
		TotalTeams:         len(teams),
		StationUtilization: make(map[string]int),
	}

	completedCount := make(map[string]int)
	playing := make(map[string]bool)
	for _, p := range progress {
		switch p.Status {
		case StatusCompleted:
			completedCount[p.TeamID]++
		case StatusInProgress:
			playing[p.TeamID] = true
			status.StationUtilization[p.StationID]++
		}
	}
	status.CurrentlyPlayingTeams = len(playing)

	var progressSum float64
	for _, t := range teams {
		switch t.Status {
		case TeamActive:
			status.ActiveTeams++
		case TeamCompleted:
			status.CompletedTeams++
		}
		if n := assigned[t.ID]; n > 0 {
			progressSum += float64(completedCount[t.ID]) / float64(n) * 100
		}
	}
	if len(teams) > 0 {
		status.AverageProgressPercent = progressSum / float64(len(teams))
	}
	return status, nil
}
