package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/huntworks/cityhunt/internal/engine"
)

type CompleteStationRequest struct {
	ScoreEarned int      `json:"scoreEarned"`
	Clips       []string `json:"clips,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type CompleteStationResponse struct {
	TotalScore     int  `json:"totalScore"`
	CompletedCount int  `json:"completedCount"`
	AssignedCount  int  `json:"assignedCount"`
	TeamCompleted  bool `json:"teamCompleted"`
}

type SkipStationRequest struct {
	Reason string `json:"reason,omitempty"`
}

func handleStartStation(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamID")
		stationID := chi.URLParam(r, "stationID")

		err := eng.Tracker.Start(r.Context(), teamID, stationID)
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team or station not found")
			return
		}
		if errors.Is(err, engine.ErrNotAssigned) {
			writeError(w, http.StatusConflict, "station not assigned to this team")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(teamID, ProgressEvent{Type: "station_started", StationID: stationID})
		writeJSON(w, http.StatusOK, map[string]string{"status": "in_progress"})
	}
}

func handleCompleteStation(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamID")
		stationID := chi.URLParam(r, "stationID")

		var req CompleteStationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ScoreEarned < 0 {
			writeError(w, http.StatusBadRequest, "scoreEarned must not be negative")
			return
		}

		res, err := eng.Tracker.Complete(r.Context(), teamID, stationID, req.ScoreEarned, req.Clips, strings.TrimSpace(req.Notes))
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team or station not found")
			return
		}
		if errors.Is(err, engine.ErrNotAssigned) {
			writeError(w, http.StatusConflict, "station not assigned to this team")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(teamID, ProgressEvent{
			Type:       "station_completed",
			StationID:  stationID,
			Score:      req.ScoreEarned,
			TotalScore: res.TotalScore,
		})
		if res.TeamCompleted {
			broker.Publish(teamID, ProgressEvent{Type: "team_completed", TotalScore: res.TotalScore})
		}

		writeJSON(w, http.StatusOK, CompleteStationResponse{
			TotalScore:     res.TotalScore,
			CompletedCount: res.CompletedCount,
			AssignedCount:  res.AssignedCount,
			TeamCompleted:  res.TeamCompleted,
		})
	}
}

func handleSkipStation(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamID")
		stationID := chi.URLParam(r, "stationID")

		var req SkipStationRequest
		if r.ContentLength > 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		err := eng.Tracker.Skip(r.Context(), teamID, stationID, strings.TrimSpace(req.Reason))
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team or station not found")
			return
		}
		if errors.Is(err, engine.ErrNotAssigned) {
			writeError(w, http.StatusConflict, "station not assigned to this team")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(teamID, ProgressEvent{Type: "station_skipped", StationID: stationID})
		writeJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
	}
}
