package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/huntworks/cityhunt/internal/engine"
)

func TestGenerateRoutesForDemoEvent(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/events/evt-demo/routes",
		GenerateRoutesRequest{Strategy: engine.StrategyOptimalTime})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp GenerateRoutesResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Routes) != 2 {
		t.Fatalf("routes = %d, want 2 (one per team)", len(resp.Routes))
	}
	for _, route := range resp.Routes {
		if len(route.Stops) != 4 {
			t.Errorf("team %s stops = %d, want 4", route.TeamID, len(route.Stops))
		}
		if len(route.Segments) != 3 {
			t.Errorf("team %s segments = %d, want 3", route.TeamID, len(route.Segments))
		}
		if route.OptimizationScore < 0 || route.OptimizationScore > 100 {
			t.Errorf("team %s score = %d, out of range", route.TeamID, route.OptimizationScore)
		}
	}
	if resp.Summary.TeamCount != 2 {
		t.Errorf("summary team count = %d, want 2", resp.Summary.TeamCount)
	}

	// The generated routes are stored and retrievable.
	w = doJSON(t, r, http.MethodGet, "/api/events/evt-demo/routes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var stored []engine.TeamRoute
	json.NewDecoder(w.Body).Decode(&stored)
	if len(stored) != 2 {
		t.Errorf("stored routes = %d, want 2", len(stored))
	}
}

func TestGenerateRoutesRejectsUnknownStrategy(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/events/evt-demo/routes",
		map[string]string{"strategy": "teleportation"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGenerateRoutesUnknownEvent(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/events/nope/routes",
		GenerateRoutesRequest{Strategy: engine.StrategyOptimalTime})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLeaderboardOverHTTP(t *testing.T) {
	r, _ := testRouter(t)

	// tm-chasquis finishes everything, tm-incas does one station.
	for _, st := range []string{"st-plaza", "st-cathedral", "st-sanmartin", "st-alameda"} {
		w := doJSON(t, r, http.MethodPost, "/api/teams/tm-chasquis/stations/"+st+"/complete",
			CompleteStationRequest{ScoreEarned: 25})
		if w.Code != http.StatusOK {
			t.Fatalf("complete %s: %d", st, w.Code)
		}
	}
	doJSON(t, r, http.MethodPost, "/api/teams/tm-incas/stations/st-plaza/complete",
		CompleteStationRequest{ScoreEarned: 90})

	w := doJSON(t, r, http.MethodGet, "/api/events/evt-demo/leaderboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var standings []engine.Standing
	json.NewDecoder(w.Body).Decode(&standings)
	if len(standings) != 2 {
		t.Fatalf("standings = %d, want 2", len(standings))
	}
	// Completion outranks the higher raw score.
	if standings[0].Team.ID != "tm-chasquis" || standings[1].Team.ID != "tm-incas" {
		t.Errorf("order = %s, %s; want tm-chasquis, tm-incas", standings[0].Team.ID, standings[1].Team.ID)
	}
	if standings[0].TotalScore != 100 {
		t.Errorf("winner score = %d, want 100", standings[0].TotalScore)
	}
}

func TestLeaderboardUnknownEventOverHTTP(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/events/nope/leaderboard", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestEventStatusOverHTTP(t *testing.T) {
	r, _ := testRouter(t)

	doJSON(t, r, http.MethodPost, "/api/teams/tm-incas/stations/st-plaza/start", nil)

	w := doJSON(t, r, http.MethodGet, "/api/events/evt-demo/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var status engine.EventStatus
	json.NewDecoder(w.Body).Decode(&status)
	if status.TotalTeams != 2 {
		t.Errorf("total teams = %d, want 2", status.TotalTeams)
	}
	if status.CurrentlyPlayingTeams != 1 {
		t.Errorf("currently playing = %d, want 1", status.CurrentlyPlayingTeams)
	}
	if status.StationUtilization["st-plaza"] != 1 {
		t.Errorf("st-plaza utilization = %d, want 1", status.StationUtilization["st-plaza"])
	}
}
