package engine

import (
	"context"
	"testing"
)

func newSelector(t *testing.T, s *SQLiteStore, renderer Renderer) *Selector {
	t.Helper()
	return NewSelector(s, NewCoordinator(s, renderer, testLogger()), testLogger())
}

func TestNextStationPrefersActiveMissions(t *testing.T) {
	s := newTestStore(t)
	seedHunt(t, s)
	// Missions on the two hardest stations only: the mission preference must
	// beat the globally lowest difficulty.
	insertMission(t, s, "evt1", "msC", "stC", true)
	insertMission(t, s, "evt1", "msD", "stD", true)
	insertMission(t, s, "evt1", "msA", "stA", false)

	sel := newSelector(t, s, nil)
	d, err := sel.NextStation(context.Background(), "team1")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if d.Status != DecisionContinue {
		t.Fatalf("status = %q, want continue", d.Status)
	}
	// stC (difficulty 3) wins over stD (4); the inactive mission on stA is ignored.
	if d.NextStationID != "stC" {
		t.Errorf("next station = %q, want stC", d.NextStationID)
	}
	if d.Mission == nil || d.Mission.ID != "msC" {
		t.Errorf("mission = %+v, want msC", d.Mission)
	}
	if d.EstimatedRemainingMinutes != 15+20+10+25 {
		t.Errorf("remaining minutes = %d, want 70", d.EstimatedRemainingMinutes)
	}
}

func TestNextStationFallsBackToLowestDifficulty(t *testing.T) {
	s := newTestStore(t)
	seedHunt(t, s)

	sel := newSelector(t, s, nil)
	d, err := sel.NextStation(context.Background(), "team1")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if d.NextStationID != "stA" {
		t.Errorf("next station = %q, want lowest-difficulty stA", d.NextStationID)
	}
}

func TestNextStationTieBreaksByStationID(t *testing.T) {
	s := newTestStore(t)
	insertEvent(t, s, "evt2", "")
	insertBlindStation(t, s, "evt2", "st-b", 2, 10)
	insertBlindStation(t, s, "evt2", "st-a", 2, 10)
	insertTeam(t, s, "evt2", "team2")
	insertAssignment(t, s, "team2", "st-b", 1)
	insertAssignment(t, s, "team2", "st-a", 2)

	sel := newSelector(t, s, nil)
	d, err := sel.NextStation(context.Background(), "team2")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if d.NextStationID != "st-a" {
		t.Errorf("next station = %q, want st-a (ID tie-break)", d.NextStationID)
	}
}

func TestNextStationSkipsTerminalStations(t *testing.T) {
	s := newTestStore(t)
	seedHunt(t, s)
	tracker := newTracker(t, s, nil)
	ctx := context.Background()

	if _, err := tracker.Complete(ctx, "team1", "stA", 10, nil, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := tracker.Skip(ctx, "team1", "stB", "closed"); err != nil {
		t.Fatalf("skip: %v", err)
	}

	sel := newSelector(t, s, nil)
	d, err := sel.NextStation(ctx, "team1")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if d.NextStationID != "stC" {
		t.Errorf("next station = %q, want stC", d.NextStationID)
	}
	if d.EstimatedRemainingMinutes != 10+25 {
		t.Errorf("remaining minutes = %d, want 35", d.EstimatedRemainingMinutes)
	}
}

func TestNextStationBlockedWhenAllSkipped(t *testing.T) {
	s := newTestStore(t)
	seedHunt(t, s)
	tracker := newTracker(t, s, nil)
	ctx := context.Background()

	for _, station := range []string{"stA", "stB", "stC", "stD"} {
		if err := tracker.Skip(ctx, "team1", station, "raining"); err != nil {
			t.Fatalf("skip: %v", err)
		}
	}

	sel := newSelector(t, s, nil)
	d, err := sel.NextStation(ctx, "team1")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if d.Status != DecisionBlocked {
		t.Fatalf("status = %q, want blocked", d.Status)
	}
	if d.Message == "" {
		t.Error("blocked decision has no message")
	}
}

func TestNextStationBlockedWithoutAssignments(t *testing.T) {
	s := newTestStore(t)
	insertEvent(t, s, "evt3", "")
	insertTeam(t, s, "evt3", "team3")

	sel := newSelector(t, s, nil)
	d, err := sel.NextStation(context.Background(), "team3")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if d.Status != DecisionBlocked {
		t.Errorf("status = %q, want blocked", d.Status)
	}
}

func TestNextStationCompletedTriggersRenderOnce(t *testing.T) {
	s := newTestStore(t)
	seedHunt(t, s)
	renderer := newFakeRenderer()
	tracker := newTracker(t, s, nil)
	ctx := context.Background()

	for _, station := range []string{"stA", "stB", "stC", "stD"} {
		if _, err := tracker.Complete(ctx, "team1", station, 10, []string{"v.mp4"}, ""); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	sel := newSelector(t, s, renderer)
	for i := 0; i < 2; i++ {
		d, err := sel.NextStation(ctx, "team1")
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if d.Status != DecisionCompleted {
			t.Fatalf("status = %q, want completed", d.Status)
		}
	}
	if renderer.createdCount() != 1 {
		t.Errorf("render jobs created = %d across two calls, want 1", renderer.createdCount())
	}
}
