package engine

import (
	"context"
	"log/slog"
	"sort"
)

// Decision statuses returned by the selector.
const (
	DecisionContinue  = "continue"
	DecisionCompleted = "completed"
	DecisionBlocked   = "blocked"
)

// Decision tells a playing team what to do next. The play client always has
// something to render: inconsistent data yields a blocked decision with a
// message, not an error.
type Decision struct {
	Status                    string   `json:"status"`
	NextStationID             string   `json:"nextStationId,omitempty"`
	Mission                   *Mission `json:"mission,omitempty"`
	EstimatedRemainingMinutes int      `json:"estimatedRemainingMinutes,omitempty"`
	Message                   string   `json:"message,omitempty"`
}

// Selector is the incremental live-play counterpart to the batch optimizer: it
// picks one next station from the team's current progress snapshot.
type Selector struct {
	store       Store
	coordinator *Coordinator
	logger      *slog.Logger
}

func NewSelector(store Store, coordinator *Coordinator, logger *slog.Logger) *Selector {
	return &Selector{store: store, coordinator: coordinator, logger: logger}
}

// NextStation decides the team's next visit. Unvisited stations with an active
// mission win; among those the lowest difficulty, ties broken by station ID so
// the pick is deterministic. All stations completed fires the render hand-off.
func (s *Selector) NextStation(ctx context.Context, teamID string) (Decision, error) {
	team, err := s.store.TeamByID(ctx, teamID)
	if err != nil {
		return Decision{}, err
	}
	assignments, err := s.store.AssignmentsByTeam(ctx, teamID)
	if err != nil {
		return Decision{}, err
	}
	if len(assignments) == 0 {
		return Decision{
			Status:  DecisionBlocked,
			Message: "no stations assigned to this team",
		}, nil
	}

	progress, err := s.store.ProgressByTeam(ctx, teamID)
	if err != nil {
		return Decision{}, err
	}
	byStation := make(map[string]Progress, len(progress))
	completed := 0
	for _, p := range progress {
		byStation[p.StationID] = p
		if p.Status == StatusCompleted {
			completed++
		}
	}

	if completed >= len(assignments) {
		s.coordinator.TriggerRender(ctx, team)
		return Decision{Status: DecisionCompleted}, nil
	}

	stationList, err := s.store.StationsByEvent(ctx, team.EventID)
	if err != nil {
		return Decision{}, err
	}
	stations := make(map[string]Station, len(stationList))
	for _, st := range stationList {
		stations[st.ID] = st
	}

	var unvisited []Station
	remainingMinutes := 0
	for _, a := range assignments {
		p, ok := byStation[a.StationID]
		if ok && (p.Status == StatusCompleted || p.Status == StatusSkipped) {
			continue
		}
		st, ok := stations[a.StationID]
		if !ok {
			continue
		}
		unvisited = append(unvisited, st)
		if st.EstimatedMinutes > 0 {
			remainingMinutes += st.EstimatedMinutes
		} else {
			remainingMinutes += defaultStationMinutes
		}
	}

	if len(unvisited) == 0 {
		// Every station is terminal but not all completed (e.g. skips):
		// the team can never auto-complete from here.
		return Decision{
			Status:  DecisionBlocked,
			Message: "no unvisited stations remain, but the hunt is not complete",
		}, nil
	}

	missions, err := s.store.ActiveMissionsByEvent(ctx, team.EventID)
	if err != nil {
		return Decision{}, err
	}

	pick := pickStation(unvisited, missions)
	d := Decision{
		Status:                    DecisionContinue,
		NextStationID:             pick.ID,
		EstimatedRemainingMinutes: remainingMinutes,
	}
	if m, ok := missions[pick.ID]; ok {
		d.Mission = &m
	}
	return d, nil
}

func pickStation(unvisited []Station, missions map[string]Mission) Station {
	sort.Slice(unvisited, func(i, j int) bool {
		if unvisited[i].Difficulty != unvisited[j].Difficulty {
			return unvisited[i].Difficulty < unvisited[j].Difficulty
		}
		return unvisited[i].ID < unvisited[j].ID
	})

	for _, st := range unvisited {
		if _, ok := missions[st.ID]; ok {
			return st
		}
	}
	return unvisited[0]
}
