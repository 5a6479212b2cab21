// Package engine implements the team routing and progression engine: route
// optimization over a team's assigned stations, the per-station progress state
// machine, next-station decisions during live play, leaderboards, and the
// one-time render hand-off when a team finishes.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/huntworks/cityhunt/internal/geo"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNotAssigned = errors.New("station not assigned to team")
)

// Progress statuses.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusSkipped    = "skipped"
)

// Team lifecycle statuses.
const (
	TeamActive    = "active"
	TeamCompleted = "completed"
	TeamInactive  = "inactive"
)

// Strategy selects how routes are ordered for an event.
type Strategy string

const (
	StrategyOptimalTime        Strategy = "optimal_time"
	StrategyShortestDistance   Strategy = "shortest_distance"
	StrategyBalancedDifficulty Strategy = "balanced_difficulty"
	StrategyScenicRoute        Strategy = "scenic_route"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyOptimalTime, StrategyShortestDistance, StrategyBalancedDifficulty, StrategyScenicRoute:
		return true
	}
	return false
}

type Event struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	StartTime        time.Time `json:"startTime"`
	RenderTemplateID string    `json:"renderTemplateId,omitempty"`
}

// Station is a physical checkpoint. Immutable once an event is published.
type Station struct {
	ID               string     `json:"id"`
	EventID          string     `json:"eventId"`
	Name             string     `json:"name"`
	Coord            *geo.Point `json:"coord,omitempty"`
	Difficulty       int        `json:"difficulty"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
	Type             string     `json:"type,omitempty"`
	Capacity         *int       `json:"capacity,omitempty"`
}

type Mission struct {
	ID        string `json:"id"`
	EventID   string `json:"eventId"`
	StationID string `json:"stationId"`
	Title     string `json:"title"`
	Active    bool   `json:"active"`
}

type Team struct {
	ID             string     `json:"id"`
	EventID        string     `json:"eventId"`
	Name           string     `json:"name"`
	Participants   []string   `json:"participants"`
	Status         string     `json:"status"`
	CurrentStation *string    `json:"currentStation,omitempty"`
	TotalScore     int        `json:"totalScore"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Assignment is the candidate (team, station, mission) pairing created at event
// setup, before any ordering. Read-only thereafter.
type Assignment struct {
	TeamID        string `json:"teamId"`
	StationID     string `json:"stationId"`
	MissionID     string `json:"missionId,omitempty"`
	SequenceOrder int    `json:"sequenceOrder"`
}

// Progress is the persisted state-machine record for one (team, station) pair.
type Progress struct {
	TeamID      string     `json:"teamId"`
	StationID   string     `json:"stationId"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ScoreEarned int        `json:"scoreEarned"`
	Clips       []string   `json:"clips"`
	Notes       string     `json:"notes,omitempty"`
}

// RouteSegment describes travel between two adjacent stations in a route.
type RouteSegment struct {
	FromStationID  string  `json:"fromStationId"`
	ToStationID    string  `json:"toStationId"`
	DistanceMeters float64 `json:"distanceMeters"`
	Minutes        float64 `json:"minutes"`
	Mode           string  `json:"mode"`
}

// RouteStop is one station visit in an optimized route, with the simulated
// arrival and departure times.
type RouteStop struct {
	StationID   string    `json:"stationId"`
	StationName string    `json:"stationName"`
	Arrival     time.Time `json:"arrival"`
	Departure   time.Time `json:"departure"`
}

// TeamRoute is the optimizer's output for one team. Regeneration replaces it
// wholesale.
type TeamRoute struct {
	TeamID              string         `json:"teamId"`
	EventID             string         `json:"eventId"`
	Strategy            Strategy       `json:"strategy"`
	Constraints         Constraints    `json:"constraints"`
	Stops               []RouteStop    `json:"stops"`
	Segments            []RouteSegment `json:"segments"`
	TotalDistanceMeters float64        `json:"totalDistanceMeters"`
	TotalMinutes        float64        `json:"totalMinutes"`
	OptimizationScore   int            `json:"optimizationScore"`
	GeneratedAt         time.Time      `json:"generatedAt"`
}

// Constraints accompany a route-generation request. They are recorded on the
// produced routes but not consulted by any strategy yet.
type Constraints struct {
	MaxTotalMinutes  int    `json:"maxTotalMinutes,omitempty"`
	AvoidCrowded     bool   `json:"avoidCrowded,omitempty"`
	IncludeRestStops bool   `json:"includeRestStops,omitempty"`
	SkillLevel       string `json:"skillLevel,omitempty"`
}

// CompletionResult summarizes a team's standing after a complete call.
type CompletionResult struct {
	TotalScore     int
	CompletedCount int
	AssignedCount  int
	TeamCompleted  bool
}

// Store is the persistence boundary. Implementations must make StartStation,
// CompleteStation and SkipStation atomic per call; the upsert keyed by
// (team, station) is what keeps retried calls convergent.
type Store interface {
	EventByID(ctx context.Context, id string) (Event, error)
	TeamByID(ctx context.Context, id string) (Team, error)
	StationByID(ctx context.Context, id string) (Station, error)

	TeamsByEvent(ctx context.Context, eventID string) ([]Team, error)
	StationsByEvent(ctx context.Context, eventID string) ([]Station, error)
	ActiveMissionsByEvent(ctx context.Context, eventID string) (map[string]Mission, error)
	AssignmentsByTeam(ctx context.Context, teamID string) ([]Assignment, error)
	TravelOverrides(ctx context.Context, eventID string) (map[[2]string]geo.Override, error)

	SaveRoutes(ctx context.Context, eventID string, routes []TeamRoute) error
	RoutesByEvent(ctx context.Context, eventID string) ([]TeamRoute, error)

	ProgressByTeam(ctx context.Context, teamID string) ([]Progress, error)
	ProgressByEvent(ctx context.Context, eventID string) ([]Progress, error)
	AssignmentCountsByEvent(ctx context.Context, eventID string) (map[string]int, error)

	StartStation(ctx context.Context, teamID, stationID string, now time.Time) error
	CompleteStation(ctx context.Context, teamID, stationID string, scoreEarned int, clips []string, notes string, now time.Time) (CompletionResult, error)
	SkipStation(ctx context.Context, teamID, stationID, reason string, now time.Time) error
}

// RenderJob is the collaborator-reported state of a media compilation job.
type RenderJob struct {
	TeamID string `json:"teamId"`
	Status string `json:"status"`
}

// Renderer is the external media-rendering collaborator.
type Renderer interface {
	ListRenderJobs(ctx context.Context, eventID string) ([]RenderJob, error)
	CreateRenderJob(ctx context.Context, eventID, teamID, templateID string, clips []string) error
}
