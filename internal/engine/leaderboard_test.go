package engine

import (
	"context"
	"testing"
	"time"
)

func setTeamStanding(t *testing.T, s *SQLiteStore, teamID string, score int, completedAt *time.Time) {
	t.Helper()
	if completedAt != nil {
		mustExec(t, s.db, `UPDATE teams SET total_score = ?, status = 'completed', completed_at = ? WHERE id = ?`,
			score, fmtTime(*completedAt), teamID)
	} else {
		mustExec(t, s.db, `UPDATE teams SET total_score = ? WHERE id = ?`, score, teamID)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	s := newTestStore(t)
	insertEvent(t, s, "evt1", "")
	insertTeam(t, s, "evt1", "T1")
	insertTeam(t, s, "evt1", "T2")
	insertTeam(t, s, "evt1", "T3")

	early := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	late := early.Add(30 * time.Minute)

	// T1 completed with 500, T2 not completed with 900, T3 completed with 500
	// but later than T1. Expected order: T1, T3, T2.
	setTeamStanding(t, s, "T1", 500, &early)
	setTeamStanding(t, s, "T2", 900, nil)
	setTeamStanding(t, s, "T3", 500, &late)

	standings, err := NewLeaderboard(s, testLogger()).Standings(context.Background(), "evt1")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("standings = %d, want 3", len(standings))
	}

	want := []string{"T1", "T3", "T2"}
	for i, id := range want {
		if standings[i].Team.ID != id {
			t.Fatalf("rank %d = %s, want %s", i+1, standings[i].Team.ID, id)
		}
		if standings[i].Rank != i+1 {
			t.Errorf("rank field = %d, want %d", standings[i].Rank, i+1)
		}
	}
}

func TestLeaderboardNonCompletedTiesKeepInputOrder(t *testing.T) {
	s := newTestStore(t)
	insertEvent(t, s, "evt1", "")
	insertTeam(t, s, "evt1", "zeta")
	insertTeam(t, s, "evt1", "alpha")

	setTeamStanding(t, s, "zeta", 100, nil)
	setTeamStanding(t, s, "alpha", 100, nil)

	standings, err := NewLeaderboard(s, testLogger()).Standings(context.Background(), "evt1")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	// zeta was inserted first and must stay first despite the ID order.
	if standings[0].Team.ID != "zeta" || standings[1].Team.ID != "alpha" {
		t.Errorf("order = %s, %s; want zeta, alpha", standings[0].Team.ID, standings[1].Team.ID)
	}
}

func TestLeaderboardCompletedStationsCount(t *testing.T) {
	s := newTestStore(t)
	seedHunt(t, s)
	ctx := context.Background()

	if _, err := s.CompleteStation(ctx, "team1", "stA", 10, nil, "", time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := s.CompleteStation(ctx, "team1", "stB", 20, nil, "", time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	standings, err := NewLeaderboard(s, testLogger()).Standings(ctx, "evt1")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if standings[0].CompletedStations != 2 {
		t.Errorf("completed stations = %d, want 2", standings[0].CompletedStations)
	}
	if standings[0].TotalScore != 30 {
		t.Errorf("total score = %d, want 30", standings[0].TotalScore)
	}
}

func TestLeaderboardUnknownEvent(t *testing.T) {
	s := newTestStore(t)
	if _, err := NewLeaderboard(s, testLogger()).Standings(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestEventStatusRollup(t *testing.T) {
	s := newTestStore(t)
	seedHunt(t, s)
	insertTeam(t, s, "evt1", "team2")
	insertAssignment(t, s, "team2", "stA", 1)
	insertAssignment(t, s, "team2", "stB", 2)
	ctx := context.Background()

	// team1 completes half its hunt; team2 is mid-station at stA.
	if _, err := s.CompleteStation(ctx, "team1", "stA", 10, nil, "", time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := s.CompleteStation(ctx, "team1", "stB", 10, nil, "", time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := s.StartStation(ctx, "team2", "stA", time.Now()); err != nil {
		t.Fatalf("start: %v", err)
	}

	status, err := NewLeaderboard(s, testLogger()).Status(ctx, "evt1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	if status.TotalTeams != 2 || status.ActiveTeams != 2 || status.CompletedTeams != 0 {
		t.Errorf("team counts = %+v", status)
	}
	if status.CurrentlyPlayingTeams != 1 {
		t.Errorf("currently playing = %d, want 1", status.CurrentlyPlayingTeams)
	}
	if status.StationUtilization["stA"] != 1 {
		t.Errorf("stA utilization = %d, want 1", status.StationUtilization["stA"])
	}
	// team1 at 50% of 4, team2 at 0% of 2 => average 25%.
	if status.AverageProgressPercent != 25 {
		t.Errorf("average progress = %v, want 25", status.AverageProgressPercent)
	}
}
