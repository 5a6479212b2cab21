package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huntworks/cityhunt/internal/engine"
)

type TeamProgressResponse struct {
	Team                          engine.Team       `json:"team"`
	Progress                      []engine.Progress `json:"progress"`
	CurrentStation                *string           `json:"currentStation,omitempty"`
	NextStation                   *engine.Decision  `json:"nextStation,omitempty"`
	CompletionPercentage          float64           `json:"completionPercentage"`
	EstimatedTimeRemainingMinutes int               `json:"estimatedTimeRemainingMinutes"`
}

func handleTeamProgress(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamID")

		team, err := eng.Store.TeamByID(r.Context(), teamID)
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		progress, err := eng.Store.ProgressByTeam(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		assignments, err := eng.Store.AssignmentsByTeam(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		completed := 0
		for _, p := range progress {
			if p.Status == engine.StatusCompleted {
				completed++
			}
		}
		pct := 0.0
		if len(assignments) > 0 {
			pct = float64(completed) / float64(len(assignments)) * 100
		}

		decision, err := eng.Selector.NextStation(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := TeamProgressResponse{
			Team:                          team,
			Progress:                      progress,
			CurrentStation:                team.CurrentStation,
			NextStation:                   &decision,
			CompletionPercentage:          pct,
			EstimatedTimeRemainingMinutes: decision.EstimatedRemainingMinutes,
		}
		if resp.Progress == nil {
			resp.Progress = []engine.Progress{}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
