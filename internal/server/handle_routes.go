package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huntworks/cityhunt/internal/engine"
)

type GenerateRoutesRequest struct {
	Strategy    engine.Strategy    `json:"strategy"`
	Constraints engine.Constraints `json:"constraints"`
}

type GenerateRoutesResponse struct {
	Routes  []engine.TeamRoute `json:"routes"`
	Summary engine.Summary     `json:"summary"`
}

func handleGenerateRoutes(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRoutesRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !req.Strategy.Valid() {
			writeError(w, http.StatusBadRequest, "unknown strategy")
			return
		}

		eventID := chi.URLParam(r, "eventID")
		routes, summary, err := eng.Optimizer.GenerateRoutes(r.Context(), eventID, req.Strategy, req.Constraints)
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if routes == nil {
			routes = []engine.TeamRoute{}
		}
		writeJSON(w, http.StatusOK, GenerateRoutesResponse{Routes: routes, Summary: summary})
	}
}

func handleListRoutes(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		if _, err := eng.Store.EventByID(r.Context(), eventID); err != nil {
			if errors.Is(err, engine.ErrNotFound) {
				writeError(w, http.StatusNotFound, "event not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		routes, err := eng.Store.RoutesByEvent(r.Context(), eventID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if routes == nil {
			routes = []engine.TeamRoute{}
		}
		writeJSON(w, http.StatusOK, routes)
	}
}
