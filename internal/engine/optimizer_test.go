package engine

import (
	"context"
	"testing"
	"time"

	"github.com/huntworks/cityhunt/internal/geo"
)

var optStart = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func limaStations() map[string]Station {
	coord := func(lat, lng float64) *geo.Point { return &geo.Point{Lat: lat, Lng: lng} }
	return map[string]Station{
		"stA": {ID: "stA", EventID: "evt1", Name: "Plaza Mayor", Coord: coord(-12.0464, -77.0428), Difficulty: 1, EstimatedMinutes: 15, Type: "landmark"},
		"stB": {ID: "stB", EventID: "evt1", Name: "Cathedral", Coord: coord(-12.0459, -77.0297), Difficulty: 4, EstimatedMinutes: 20, Type: "museum"},
		"stC": {ID: "stC", EventID: "evt1", Name: "San Martin", Coord: coord(-12.0514, -77.0340), Difficulty: 2, EstimatedMinutes: 10, Type: "outdoor"},
		"stD": {ID: "stD", EventID: "evt1", Name: "Alameda", Coord: coord(-12.0432, -77.0453), Difficulty: 3, EstimatedMinutes: 25, Type: "park"},
	}
}

func limaAssignments() []Assignment {
	return []Assignment{
		{TeamID: "team1", StationID: "stA", SequenceOrder: 1},
		{TeamID: "team1", StationID: "stB", SequenceOrder: 2},
		{TeamID: "team1", StationID: "stC", SequenceOrder: 3},
		{TeamID: "team1", StationID: "stD", SequenceOrder: 4},
	}
}

func stopIDs(r TeamRoute) []string {
	ids := make([]string, len(r.Stops))
	for i, s := range r.Stops {
		ids[i] = s.StationID
	}
	return ids
}

func build(t *testing.T, strategy Strategy, assignments []Assignment, stations map[string]Station) TeamRoute {
	t.Helper()
	team := Team{ID: "team1", EventID: "evt1"}
	return buildRoute(team, assignments, stations, geo.NewEstimator(nil), optStart, strategy, Constraints{})
}

func TestRouteSegmentsMatchStops(t *testing.T) {
	for _, strategy := range []Strategy{StrategyOptimalTime, StrategyShortestDistance, StrategyBalancedDifficulty, StrategyScenicRoute} {
		t.Run(string(strategy), func(t *testing.T) {
			r := build(t, strategy, limaAssignments(), limaStations())

			if len(r.Stops) != 4 {
				t.Fatalf("stops = %d, want 4", len(r.Stops))
			}
			if len(r.Segments) != len(r.Stops)-1 {
				t.Fatalf("segments = %d, want %d", len(r.Segments), len(r.Stops)-1)
			}
			for i, seg := range r.Segments {
				if seg.FromStationID != r.Stops[i].StationID || seg.ToStationID != r.Stops[i+1].StationID {
					t.Errorf("segment %d (%s -> %s) not adjacent in stop order", i, seg.FromStationID, seg.ToStationID)
				}
			}
			if r.OptimizationScore < 0 || r.OptimizationScore > 100 {
				t.Errorf("score = %d, want within [0, 100]", r.OptimizationScore)
			}
		})
	}
}

func TestSingleStationRouteHasNoSegments(t *testing.T) {
	r := build(t, StrategyOptimalTime, limaAssignments()[:1], limaStations())
	if len(r.Stops) != 1 || len(r.Segments) != 0 {
		t.Fatalf("stops = %d segments = %d, want 1 and 0", len(r.Stops), len(r.Segments))
	}
}

func TestOptimalTimeEqualsShortestDistance(t *testing.T) {
	byTime := build(t, StrategyOptimalTime, limaAssignments(), limaStations())
	byDist := build(t, StrategyShortestDistance, limaAssignments(), limaStations())

	a, b := stopIDs(byTime), stopIDs(byDist)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("orders diverge: %v vs %v", a, b)
		}
	}
}

func TestNearestNeighborStartsFromFirstAssignment(t *testing.T) {
	r := build(t, StrategyOptimalTime, limaAssignments(), limaStations())
	if r.Stops[0].StationID != "stA" {
		t.Errorf("first stop = %s, want the first assignment stA", r.Stops[0].StationID)
	}
}

func TestNearestNeighborTiesKeepSequenceOrder(t *testing.T) {
	// No coordinates anywhere: every leg is the fixed fallback, so every pick
	// ties and the original sequence order must win.
	stations := map[string]Station{
		"stA": {ID: "stA", Difficulty: 1, EstimatedMinutes: 10},
		"stB": {ID: "stB", Difficulty: 1, EstimatedMinutes: 10},
		"stC": {ID: "stC", Difficulty: 1, EstimatedMinutes: 10},
	}
	assignments := []Assignment{
		{TeamID: "team1", StationID: "stC", SequenceOrder: 1},
		{TeamID: "team1", StationID: "stA", SequenceOrder: 2},
		{TeamID: "team1", StationID: "stB", SequenceOrder: 3},
	}

	r := build(t, StrategyOptimalTime, assignments, stations)
	got := stopIDs(r)
	want := []string{"stC", "stA", "stB"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestBalancedDifficultyIsNonDecreasing(t *testing.T) {
	r := build(t, StrategyBalancedDifficulty, limaAssignments(), limaStations())
	stations := limaStations()

	prev := 0
	for _, stop := range r.Stops {
		d := stations[stop.StationID].Difficulty
		if d < prev {
			t.Fatalf("difficulty order %v not non-decreasing", stopIDs(r))
		}
		prev = d
	}
}

func TestScenicRouteOrdersByTagScore(t *testing.T) {
	r := build(t, StrategyScenicRoute, limaAssignments(), limaStations())
	// outdoor (3) > landmark/park (2, stable: stA before stD) > museum (1).
	want := []string{"stC", "stA", "stD", "stB"}
	got := stopIDs(r)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRouteClockAccumulates(t *testing.T) {
	r := build(t, StrategyBalancedDifficulty, limaAssignments(), limaStations())

	if !r.Stops[0].Arrival.Equal(optStart) {
		t.Errorf("first arrival = %v, want event start %v", r.Stops[0].Arrival, optStart)
	}
	for i, stop := range r.Stops {
		if !stop.Departure.After(stop.Arrival) {
			t.Errorf("stop %d departure not after arrival", i)
		}
		if i > 0 && stop.Arrival.Before(r.Stops[i-1].Departure) {
			t.Errorf("stop %d arrival before previous departure", i)
		}
	}
	if r.TotalMinutes <= 0 {
		t.Errorf("total minutes = %v, want > 0", r.TotalMinutes)
	}
}

func TestDefaultStationDuration(t *testing.T) {
	stations := map[string]Station{
		"stA": {ID: "stA", Difficulty: 1},
	}
	assignments := []Assignment{{TeamID: "team1", StationID: "stA", SequenceOrder: 1}}

	r := build(t, StrategyOptimalTime, assignments, stations)
	if got := r.Stops[0].Departure.Sub(r.Stops[0].Arrival); got != 15*time.Minute {
		t.Errorf("dwell = %v, want default 15m", got)
	}
}

func TestScoreRoute(t *testing.T) {
	for _, tc := range []struct {
		name          string
		minutes, dist float64
		segments      int
		avgDiff       float64
		want          int
	}{
		// 100 + (20-3) + 10 + 10, clamped to 100.
		{"short easy route", 120, 3000, 3, 2.5, 100},
		// 100 - 20 + 17 = 97; distance and difficulty bonuses missed.
		{"long route", 300, 9000, 3, 4.5, 97},
		// 100 - 20 - 30 + 17 = 67.
		{"very long route", 400, 9000, 3, 4.5, 67},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := scoreRoute(tc.minutes, tc.dist, tc.segments, tc.avgDiff); got != tc.want {
				t.Errorf("score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestGenerateRoutesSkipsTeamsWithoutAssignments(t *testing.T) {
	s := newTestStore(t)
	seedHunt(t, s)
	insertTeam(t, s, "evt1", "team-empty")

	o := NewOptimizer(s, testLogger())
	routes, summary, err := o.GenerateRoutes(context.Background(), "evt1", StrategyOptimalTime, Constraints{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("routes = %d, want 1 (empty team skipped)", len(routes))
	}
	if summary.TeamCount != 1 {
		t.Errorf("summary team count = %d, want 1", summary.TeamCount)
	}

	// Regeneration replaces stored routes wholesale.
	stored, err := s.RoutesByEvent(context.Background(), "evt1")
	if err != nil {
		t.Fatalf("load routes: %v", err)
	}
	if len(stored) != 1 || stored[0].TeamID != "team1" {
		t.Fatalf("stored = %+v, want team1's route", stored)
	}
	if stored[0].Strategy != StrategyOptimalTime {
		t.Errorf("strategy = %q", stored[0].Strategy)
	}
}

func TestGenerateRoutesUnknownEvent(t *testing.T) {
	s := newTestStore(t)
	o := NewOptimizer(s, testLogger())

	if _, _, err := o.GenerateRoutes(context.Background(), "nope", StrategyOptimalTime, Constraints{}); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestSummarize(t *testing.T) {
	stations := limaStations()
	routes := []TeamRoute{
		build(t, StrategyOptimalTime, limaAssignments(), stations),
		build(t, StrategyBalancedDifficulty, limaAssignments(), stations),
	}

	s := summarize(routes, stations)
	if s.TeamCount != 2 {
		t.Fatalf("team count = %d", s.TeamCount)
	}
	if s.MinScore > s.MaxScore || s.MinMinutes > s.MaxMinutes {
		t.Errorf("min/max inverted: %+v", s)
	}
	total := 0
	for _, n := range s.DifficultyDistribution {
		total += n
	}
	if total != 8 {
		t.Errorf("difficulty distribution covers %d stops, want 8", total)
	}
	modes := 0
	for _, n := range s.TransportModes {
		modes += n
	}
	if modes != 6 {
		t.Errorf("transport modes cover %d segments, want 6", modes)
	}
}
