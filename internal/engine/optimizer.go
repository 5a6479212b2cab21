package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/huntworks/cityhunt/internal/geo"
)

const defaultStationMinutes = 15

// batchWorkers bounds parallel per-team route construction. Teams share no
// mutable state, so this is a plain fan-out.
const batchWorkers = 8

// Optimizer produces advisory visitation plans from the assignment set. It
// never reads or mutates progress records.
type Optimizer struct {
	store  Store
	logger *slog.Logger
}

func NewOptimizer(store Store, logger *slog.Logger) *Optimizer {
	return &Optimizer{store: store, logger: logger}
}

// Summary is the analytics rollup for one batch generation.
type Summary struct {
	TeamCount              int             `json:"teamCount"`
	AverageMinutes         float64         `json:"averageMinutes"`
	AverageDistanceMeters  float64         `json:"averageDistanceMeters"`
	AverageScore           float64         `json:"averageScore"`
	MinScore               int             `json:"minScore"`
	MaxScore               int             `json:"maxScore"`
	MinMinutes             float64         `json:"minMinutes"`
	MaxMinutes             float64         `json:"maxMinutes"`
	DifficultyDistribution map[int]int     `json:"difficultyDistribution"`
	TransportModes         map[string]int  `json:"transportModes"`
}

// GenerateRoutes builds a route per team in the event under the given strategy,
// stores them wholesale, and returns them with an analytics summary. Teams with
// no assignments are skipped, not errors.
func (o *Optimizer) GenerateRoutes(ctx context.Context, eventID string, strategy Strategy, cons Constraints) ([]TeamRoute, Summary, error) {
	if !strategy.Valid() {
		return nil, Summary{}, fmt.Errorf("unknown strategy %q", strategy)
	}

	event, err := o.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, Summary{}, err
	}
	teams, err := o.store.TeamsByEvent(ctx, eventID)
	if err != nil {
		return nil, Summary{}, err
	}
	stationList, err := o.store.StationsByEvent(ctx, eventID)
	if err != nil {
		return nil, Summary{}, err
	}
	overrides, err := o.store.TravelOverrides(ctx, eventID)
	if err != nil {
		return nil, Summary{}, err
	}

	stations := make(map[string]Station, len(stationList))
	for _, st := range stationList {
		stations[st.ID] = st
	}
	est := geo.NewEstimator(overrides)

	results := make([]*TeamRoute, len(teams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)
	for i, team := range teams {
		g.Go(func() error {
			assignments, err := o.store.AssignmentsByTeam(gctx, team.ID)
			if err != nil {
				return fmt.Errorf("loading assignments for team %s: %w", team.ID, err)
			}
			if len(assignments) == 0 {
				o.logger.Debug("skipping team with no assignments", "team_id", team.ID)
				return nil
			}
			route := buildRoute(team, assignments, stations, est, event.StartTime, strategy, cons)
			results[i] = &route
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}

	routes := make([]TeamRoute, 0, len(teams))
	for _, r := range results {
		if r != nil {
			routes = append(routes, *r)
		}
	}

	if err := o.store.SaveRoutes(ctx, eventID, routes); err != nil {
		return nil, Summary{}, fmt.Errorf("saving routes: %w", err)
	}

	o.logger.Info("generated routes",
		"event_id", eventID,
		"strategy", strategy,
		"teams", len(teams),
		"routes", len(routes),
	)
	return routes, summarize(routes, stations), nil
}

// buildRoute orders a single team's assignments under the strategy, then walks
// the sequence with a simulated clock from the event start.
func buildRoute(team Team, assignments []Assignment, stations map[string]Station, est *geo.Estimator, start time.Time, strategy Strategy, cons Constraints) TeamRoute {
	// Drop assignments pointing at unknown stations rather than failing the route.
	known := assignments[:0:0]
	for _, a := range assignments {
		if _, ok := stations[a.StationID]; ok {
			known = append(known, a)
		}
	}

	var ordered []Assignment
	switch strategy {
	case StrategyBalancedDifficulty:
		ordered = orderByDifficulty(known, stations)
	case StrategyScenicRoute:
		ordered = orderByScenery(known, stations)
	default:
		// optimal_time and shortest_distance share the nearest-neighbor
		// construction: distance and time are monotonically related under the
		// fixed-speed model.
		ordered = orderNearestNeighbor(known, stations, est)
	}

	route := TeamRoute{
		TeamID:      team.ID,
		EventID:     team.EventID,
		Strategy:    strategy,
		Constraints: cons,
		Stops:       make([]RouteStop, 0, len(ordered)),
		Segments:    make([]RouteSegment, 0, max(len(ordered)-1, 0)),
		GeneratedAt: time.Now().UTC(),
	}

	clock := start
	difficultySum := 0
	for i, a := range ordered {
		st := stations[a.StationID]
		difficultySum += st.Difficulty

		minutes := st.EstimatedMinutes
		if minutes <= 0 {
			minutes = defaultStationMinutes
		}
		arrival := clock
		departure := arrival.Add(time.Duration(minutes) * time.Minute)
		route.Stops = append(route.Stops, RouteStop{
			StationID:   st.ID,
			StationName: st.Name,
			Arrival:     arrival,
			Departure:   departure,
		})

		clock = departure
		if i < len(ordered)-1 {
			next := stations[ordered[i+1].StationID]
			e := est.Between(st.ID, next.ID, st.Coord, next.Coord)
			route.Segments = append(route.Segments, RouteSegment{
				FromStationID:  st.ID,
				ToStationID:    next.ID,
				DistanceMeters: e.DistanceMeters,
				Minutes:        e.Duration.Minutes(),
				Mode:           e.Mode,
			})
			route.TotalDistanceMeters += e.DistanceMeters
			clock = clock.Add(e.Duration)
		}
	}

	route.TotalMinutes = clock.Sub(start).Minutes()

	avgDifficulty := 0.0
	if len(ordered) > 0 {
		avgDifficulty = float64(difficultySum) / float64(len(ordered))
	}
	route.OptimizationScore = scoreRoute(route.TotalMinutes, route.TotalDistanceMeters, len(route.Segments), avgDifficulty)
	return route
}

// orderNearestNeighbor starts from the first assignment in sequence order and
// repeatedly appends the unvisited station with the smallest travel time from
// the current one. Ties keep the earlier sequence order.
func orderNearestNeighbor(assignments []Assignment, stations map[string]Station, est *geo.Estimator) []Assignment {
	if len(assignments) == 0 {
		return nil
	}

	remaining := make([]Assignment, len(assignments))
	copy(remaining, assignments)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].SequenceOrder < remaining[j].SequenceOrder
	})

	ordered := []Assignment{remaining[0]}
	remaining = remaining[1:]

	for len(remaining) > 0 {
		cur := stations[ordered[len(ordered)-1].StationID]
		best := 0
		bestDur := time.Duration(-1)
		for i, a := range remaining {
			to := stations[a.StationID]
			d := est.Between(cur.ID, to.ID, cur.Coord, to.Coord).Duration
			if bestDur < 0 || d < bestDur {
				best, bestDur = i, d
			}
		}
		ordered = append(ordered, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}

// orderByDifficulty produces a progressive ramp-up: stable sort by station
// difficulty ascending, no pathfinding.
func orderByDifficulty(assignments []Assignment, stations map[string]Station) []Assignment {
	ordered := make([]Assignment, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return stations[ordered[i].StationID].Difficulty < stations[ordered[j].StationID].Difficulty
	})
	return ordered
}

func orderByScenery(assignments []Assignment, stations map[string]Station) []Assignment {
	ordered := make([]Assignment, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return sceneryScore(stations[ordered[i].StationID].Type) > sceneryScore(stations[ordered[j].StationID].Type)
	})
	return ordered
}

func sceneryScore(stationType string) int {
	switch stationType {
	case "outdoor":
		return 3
	case "landmark", "park":
		return 2
	case "museum":
		return 1
	}
	return 0
}

// scoreRoute is advisory telemetry on a 0-100 scale; it never rejects a route.
func scoreRoute(totalMinutes, totalDistanceMeters float64, segments int, avgDifficulty float64) int {
	score := 100
	if totalMinutes > 240 {
		score -= 20
	}
	if totalMinutes > 360 {
		score -= 30
	}
	score += min(20, 20-segments)
	if avgDifficulty > 1 && avgDifficulty < 4 {
		score += 10
	}
	if totalDistanceMeters < 5000 {
		score += 10
	}
	return min(100, max(0, score))
}

func summarize(routes []TeamRoute, stations map[string]Station) Summary {
	s := Summary{
		TeamCount:              len(routes),
		DifficultyDistribution: make(map[int]int),
		TransportModes:         make(map[string]int),
	}
	if len(routes) == 0 {
		return s
	}

	var totalMinutes, totalDistance float64
	var totalScore int
	for i, r := range routes {
		totalMinutes += r.TotalMinutes
		totalDistance += r.TotalDistanceMeters
		totalScore += r.OptimizationScore

		if i == 0 || r.OptimizationScore < s.MinScore {
			s.MinScore = r.OptimizationScore
		}
		if r.OptimizationScore > s.MaxScore {
			s.MaxScore = r.OptimizationScore
		}
		if i == 0 || r.TotalMinutes < s.MinMinutes {
			s.MinMinutes = r.TotalMinutes
		}
		if r.TotalMinutes > s.MaxMinutes {
			s.MaxMinutes = r.TotalMinutes
		}

		for _, stop := range r.Stops {
			if st, ok := stations[stop.StationID]; ok {
				s.DifficultyDistribution[st.Difficulty]++
			}
		}
		for _, seg := range r.Segments {
			s.TransportModes[seg.Mode]++
		}
	}

	n := float64(len(routes))
	s.AverageMinutes = totalMinutes / n
	s.AverageDistanceMeters = totalDistance / n
	s.AverageScore = float64(totalScore) / n
	return s
}
