package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huntworks/cityhunt/internal/engine"
)

// NextStationRequest carries the optional currentStationId query parameter.
// The pick works off the team's stored progress rows, so the caller's claimed
// position is advisory and currently unused.
type NextStationRequest struct {
	CurrentStationID string `query:"currentStationId"`
}

func handleNextStation(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamID")

		decision, err := eng.Selector.NextStation(r.Context(), teamID)
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, decision)
	}
}
